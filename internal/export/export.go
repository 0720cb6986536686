// Package export writes today's batch as per-provider mailing lists.
package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/normalize"
)

// Output names.
const (
	ProviderDir  = "doctors"
	CombinedFile = "today_send.csv"
	ArchiveFile  = "doctor_email_files.zip"
)

// Group is one provider's share of the batch, in batch order.
type Group struct {
	Provider string
	Records  []model.Record
}

// GroupByProvider splits batch by provider. Groups appear in the order
// their provider is first seen.
func GroupByProvider(batch []model.Record) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, r := range batch {
		i, ok := index[r.Provider]
		if !ok {
			i = len(groups)
			index[r.Provider] = i
			groups = append(groups, Group{Provider: r.Provider})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// ProviderFileNames returns one archive path per group, in group order.
// Providers whose names reduce to the same file name get _2, _3 and so on
// so no list overwrites another.
func ProviderFileNames(groups []Group, stem string) []string {
	names := make([]string, len(groups))
	used := make(map[string]bool, len(groups))
	for i, g := range groups {
		base := normalize.SafeFilename(g.Provider)
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = true
		names[i] = providerPath(name, stem)
	}
	return names
}

func providerPath(name, stem string) string {
	return ProviderDir + "/" + name + "_" + stem + ".csv"
}

// Stem returns the base name of path without its extension, made safe for
// use in file names.
func Stem(path string) string {
	base := filepath.Base(path)
	return normalize.SafeFilename(base[:len(base)-len(filepath.Ext(base))])
}

// WriteProviderCSV writes SRN, Name, Email rows numbered from 1.
func WriteProviderCSV(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"SRN", "Name", "Email"}); err != nil {
		return err
	}
	for i, r := range records {
		if err := cw.Write([]string{strconv.Itoa(i + 1), r.FirstName, r.Email}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCombinedCSV writes the batch with every master column.
func WriteCombinedCSV(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.MasterColumns()); err != nil {
		return err
	}
	for i := range records {
		if err := cw.Write(records[i].Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteArchive writes a zip holding one CSV per provider under doctors/
// and the combined list.
func WriteArchive(w io.Writer, stem string, batch []model.Record) error {
	zw := zip.NewWriter(w)
	groups := GroupByProvider(batch)
	for i, name := range ProviderFileNames(groups, stem) {
		g := groups[i]
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
		if err := WriteProviderCSV(fw, g.Records); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	fw, err := zw.Create(CombinedFile)
	if err != nil {
		return fmt.Errorf("add %s: %w", CombinedFile, err)
	}
	if err := WriteCombinedCSV(fw, batch); err != nil {
		return fmt.Errorf("write %s: %w", CombinedFile, err)
	}
	return zw.Close()
}

// Files lists what WriteBatch produced.
type Files struct {
	Providers []string
	Combined  string
	Archive   string
}

// WriteBatch writes the provider lists, the combined list and the zip
// under dir.
func WriteBatch(dir, stem string, batch []model.Record) (*Files, error) {
	if err := os.MkdirAll(filepath.Join(dir, ProviderDir), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	out := &Files{}
	groups := GroupByProvider(batch)
	for i, name := range ProviderFileNames(groups, stem) {
		g := groups[i]
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := writeFile(path, func(w io.Writer) error { return WriteProviderCSV(w, g.Records) }); err != nil {
			return nil, err
		}
		out.Providers = append(out.Providers, path)
	}

	out.Combined = filepath.Join(dir, CombinedFile)
	if err := writeFile(out.Combined, func(w io.Writer) error { return WriteCombinedCSV(w, batch) }); err != nil {
		return nil, err
	}

	out.Archive = filepath.Join(dir, ArchiveFile)
	if err := writeFile(out.Archive, func(w io.Writer) error { return WriteArchive(w, stem, batch) }); err != nil {
		return nil, err
	}
	return out, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
