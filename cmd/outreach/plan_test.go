package main

import "testing"

func TestCheckPlanInputs(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		feed    string
		wantErr bool
	}{
		{"neither", "", "", false},
		{"roster only", "roster.xlsx", "", false},
		{"feed only", "", "no_review.csv", false},
		{"both", "roster.xlsx", "no_review.csv", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPlanInputs(tt.file, tt.feed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("checkPlanInputs(%q, %q) error = %v, wantErr %v", tt.file, tt.feed, err, tt.wantErr)
			}
		})
	}
}
