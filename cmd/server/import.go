package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/linkflyer/venued/pkg/catalog"
	"github.com/linkflyer/venued/pkg/venue"
)

// CSV columns expected by the importer, header row required.
var csvColumns = []string{
	"place_id", "display_name", "formatted_address", "business_status",
	"types", "latitude", "longitude", "country", "region", "locality",
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "venues.db", "path to the venue database")
	file := fs.String("file", "", "CSV file to import (required)")
	fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: venued import --file <venues.csv> [--db <venues.db>]")
		fmt.Fprintf(os.Stderr, "\nExpected columns: %s\n", strings.Join(csvColumns, ","))
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *file, err)
		os.Exit(1)
	}
	defer f.Close()

	store, err := catalog.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	imported, skipped, err := importCSV(ctx, store, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d venues (%d rows skipped)\n", imported, skipped)
}

func importCSV(ctx context.Context, store *catalog.Store, r io.Reader) (imported, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvColumns)

	header, err := cr.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	for i, want := range csvColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return 0, 0, fmt.Errorf("column %d is %q, want %q", i, header[i], want)
		}
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return imported, skipped, nil
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := recordFromRow(row)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d skipped: %v\n", line, err)
			skipped++
			continue
		}
		if err := store.Insert(ctx, rec); err != nil {
			return imported, skipped, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}
}

func recordFromRow(row []string) (venue.Record, error) {
	rec := venue.Record{
		ID:             strings.TrimSpace(row[0]),
		Name:           strings.TrimSpace(row[1]),
		Address:        strings.TrimSpace(row[2]),
		BusinessStatus: strings.TrimSpace(row[3]),
		Country:        strings.TrimSpace(row[7]),
		Region:         strings.TrimSpace(row[8]),
		Locality:       strings.TrimSpace(row[9]),
	}
	if rec.ID == "" {
		return venue.Record{}, fmt.Errorf("empty place_id")
	}
	if rec.Name == "" {
		return venue.Record{}, fmt.Errorf("empty display_name")
	}

	if types := strings.TrimSpace(row[4]); types != "" {
		rec.Categories = strings.Split(types, ";")
	}

	for i, dst := range []**float64{&rec.Latitude, &rec.Longitude} {
		raw := strings.TrimSpace(row[5+i])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return venue.Record{}, fmt.Errorf("bad coordinate %q: %w", raw, err)
		}
		*dst = &v
	}
	return rec, nil
}
