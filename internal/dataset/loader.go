package dataset

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

const (
	batchSize    = 10000
	maxWorkers   = 10
	cacheVersion = "v1"
)

// Column headers of the supermarket sales export.
const (
	colInvoiceID   = "Invoice ID"
	colCity        = "City"
	colGender      = "Gender"
	colProductLine = "Product line"
	colTotal       = "Total"
	colDate        = "Date"
)

var dateLayouts = []string{"1/2/2006", "2006-01-02"}

type columnIndex struct {
	invoiceID, city, gender, productLine, total, date int
	width                                             int
}

type Loader struct {
	cacheDir string
	logger   *slog.Logger
}

// NewLoader returns a Loader that keeps parsed snapshots under cacheDir.
// An empty cacheDir disables the snapshot cache.
func NewLoader(cacheDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cacheDir: cacheDir, logger: logger.With("component", "dataset")}
}

type snapshot struct {
	Records   []models.Transaction
	CreatedAt time.Time
}

// Load reads filename into a Store, reusing a cached snapshot when it is
// newer than the CSV file.
func (l *Loader) Load(ctx context.Context, filename string) (*Store, error) {
	start := time.Now()

	if cached, err := l.loadFromCache(filename); err == nil {
		info, statErr := os.Stat(filename)
		if statErr == nil && info.ModTime().Before(cached.CreatedAt) {
			store := New(cached.Records)
			store.source = filename
			store.loadDuration = time.Since(start)
			l.logger.Info("dataset loaded from cache", "records", store.Len())
			return store, nil
		}
	}

	l.logger.Info("processing CSV file", "filename", filename)

	records, err := l.readCSV(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("process csv: %w", err)
	}

	if err := l.saveToCache(filename, records); err != nil {
		l.logger.Warn("failed to save dataset cache", "error", err)
	}

	store := New(records)
	store.source = filename
	store.loadDuration = time.Since(start)

	l.logger.Info("csv processing complete",
		"records", store.Len(),
		"cities", len(store.cities),
		"duration", store.loadDuration,
	)
	return store, nil
}

func (l *Loader) readCSV(ctx context.Context, filename string) ([]models.Transaction, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("empty file")
	}
	cols, err := parseHeader(scanner.Text())
	if err != nil {
		return nil, err
	}

	var (
		records []models.Transaction
		skipped int
	)
	batch := make([]string, 0, batchSize)

	flush := func() error {
		parsed, bad, err := parseBatch(ctx, batch, cols)
		if err != nil {
			return err
		}
		records = append(records, parsed...)
		skipped += bad
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		batch = append(batch, line)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}

	if skipped > 0 {
		l.logger.Warn("skipped invalid records", "count", skipped)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}
	return records, nil
}

func parseHeader(line string) (columnIndex, error) {
	positions := make(map[string]int)
	for i, name := range strings.Split(line, ",") {
		positions[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var cols columnIndex
	required := []struct {
		name string
		dst  *int
	}{
		{colInvoiceID, &cols.invoiceID},
		{colCity, &cols.city},
		{colGender, &cols.gender},
		{colProductLine, &cols.productLine},
		{colTotal, &cols.total},
		{colDate, &cols.date},
	}
	for _, r := range required {
		pos, ok := positions[r.name]
		if !ok {
			return columnIndex{}, fmt.Errorf("missing column %q", r.name)
		}
		*r.dst = pos
		cols.width = max(cols.width, pos+1)
	}
	return cols, nil
}

// parseBatch parses lines concurrently and returns the valid records in
// input order along with the number of rejected lines.
func parseBatch(ctx context.Context, lines []string, cols columnIndex) ([]models.Transaction, int, error) {
	parsed := make([]models.Transaction, len(lines))
	valid := make([]bool, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	chunk := (len(lines) + maxWorkers - 1) / maxWorkers
	for lo := 0; lo < len(lines); lo += chunk {
		hi := min(lo+chunk, len(lines))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				tx, err := parseRecord(strings.Split(lines[i], ","), cols)
				if err != nil {
					continue
				}
				parsed[i] = tx
				valid[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]models.Transaction, 0, len(lines))
	for i, ok := range valid {
		if ok {
			out = append(out, parsed[i])
		}
	}
	return out, len(lines) - len(out), nil
}

func parseRecord(record []string, cols columnIndex) (models.Transaction, error) {
	if len(record) < cols.width {
		return models.Transaction{}, fmt.Errorf("insufficient columns")
	}

	invoiceID := strings.TrimSpace(record[cols.invoiceID])
	if invoiceID == "" {
		return models.Transaction{}, fmt.Errorf("empty invoice id")
	}

	gender, ok := models.ParseGender(strings.TrimSpace(record[cols.gender]))
	if !ok {
		return models.Transaction{}, fmt.Errorf("invalid gender %q", record[cols.gender])
	}

	city := strings.TrimSpace(record[cols.city])
	if city == "" || city == models.FilterAll {
		return models.Transaction{}, fmt.Errorf("invalid city %q", record[cols.city])
	}

	total, err := decimal.NewFromString(strings.TrimSpace(record[cols.total]))
	if err != nil {
		return models.Transaction{}, err
	}
	if total.IsNegative() {
		return models.Transaction{}, fmt.Errorf("negative total %s", total)
	}

	date, err := parseDate(strings.TrimSpace(record[cols.date]))
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		InvoiceID:   invoiceID,
		Gender:      gender,
		City:        city,
		ProductLine: strings.TrimSpace(record[cols.productLine]),
		Total:       total,
		Date:        date,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func (l *Loader) cacheFilename(csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(csvPath)
	return filepath.Join(l.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (l *Loader) saveToCache(csvPath string, records []models.Transaction) error {
	if l.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(l.cacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snapshot{Records: records, CreatedAt: time.Now()})
}

func (l *Loader) loadFromCache(csvPath string) (*snapshot, error) {
	if l.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	file, err := os.Open(l.cacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	if len(snap.Records) == 0 {
		return nil, fmt.Errorf("empty snapshot")
	}
	return &snap, nil
}
