// import-history bulk-loads historical tracking data from a CSV export into
// the babynest database. Rows are either activity entries or growth
// measurements:
//
//	babyId,recordedAt,kind,value,note
//
// kind is an entry type (FEEDING, SLEEP, DIAPER, ...) with an optional note,
// or one of the measurement kinds WEIGHT_G / HEIGHT_MM / HEAD_MM with a
// numeric value. Runs in dry-run mode unless -enable-write is passed.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
)

var (
	logLevel    string
	enableWrite bool
	workers     int
)

var measurementKinds = map[string]bool{
	"WEIGHT_G":  true,
	"HEIGHT_MM": true,
	"HEAD_MM":   true,
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}

func setLogLevel() {
	logLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

type csvRow struct {
	rowNum     int
	babyID     string
	recordedAt time.Time
	kind       string
	value      string
	note       string
}

type result struct {
	rowNum int
	err    error
	status string
}

func main() {
	godotenv.Load()

	inPath := flag.String("in", "", "input CSV path (babyId,recordedAt,kind,value,note)")
	flag.BoolVar(&enableWrite, "enable-write", false, "enable writing to database (default: dry-run mode)")
	flag.IntVar(&workers, "workers", 1, "number of concurrent workers (default: 1)")
	flag.Parse()

	if *inPath == "" {
		log.Fatal("missing -in flag")
	}

	setLogLevel()

	if !enableWrite {
		logrus.Info("DRY RUN MODE - no database writes will occur")
	}

	logrus.Infof("History import start (LOG_LEVEL=%s, file=%s, enable-write=%v, workers=%d)",
		logLevel, *inPath, enableWrite, workers)

	ctx := context.Background()

	var dbBackend *db.DB
	if enableWrite {
		dbPort := 5432
		if portStr := getenv("BABYNEST_API_DB_PORT", "5432"); portStr != "" {
			if p, err := strconv.Atoi(portStr); err == nil {
				dbPort = p
			}
		}

		var err error
		dbBackend, err = db.New(ctx, &db.Options{
			User:     getenv("BABYNEST_API_DB_USER", "babynest"),
			Password: getenv("BABYNEST_API_DB_PASSWORD", "babynest"),
			Host:     getenv("BABYNEST_API_DB_HOST", "localhost"),
			Port:     dbPort,
			DBName:   getenv("BABYNEST_API_DB_NAME", "babynest"),
			SSLMode:  getenv("BABYNEST_API_DB_SSL_MODE", "disable"),
		})
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer dbBackend.Close()
	}

	f, err := os.Open(*inPath)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	r.TrimLeadingSpace = true

	if workers < 1 {
		workers = 1
	}

	logrus.Infof("Starting import with %d worker(s)", workers)

	csvRows := make(chan csvRow, workers*2)
	results := make(chan result, workers*2)
	var wg sync.WaitGroup

	seen := make(map[string]bool)
	var seenMu sync.Mutex

	var totalRows int64
	successCount := int64(0)
	skipCount := int64(0)
	errorCount := int64(0)

	rowNum := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for row := range csvRows {
				key := row.babyID + "|" + row.kind + "|" + row.recordedAt.Format(time.RFC3339)
				seenMu.Lock()
				if seen[key] {
					seenMu.Unlock()
					logrus.Warnf("DUPE DETECTED! %d: %s | %s | %s",
						row.rowNum, row.babyID, row.kind, row.recordedAt)
					results <- result{rowNum: row.rowNum, status: "dupe_skip"}
					continue
				}
				seen[key] = true
				seenMu.Unlock()

				if !enableWrite {
					logrus.Infof("DRY RUN - would insert %s for baby %s at %s (value=%q, note=%q)",
						row.kind, row.babyID, row.recordedAt.Format(time.RFC3339), row.value, row.note)
					results <- result{rowNum: row.rowNum, status: "success"}
					continue
				}

				var err error

				if measurementKinds[row.kind] {
					err = insertMeasurement(ctx, dbBackend, row)
				} else {
					err = insertEntry(ctx, dbBackend, row)
				}

				if err != nil {
					logrus.Errorf("row %d failed to insert: %v", row.rowNum, err)
					results <- result{rowNum: row.rowNum, err: err, status: "error"}
					continue
				}

				logrus.Infof("row %d: inserted %s for baby %s", row.rowNum, row.kind, row.babyID)
				results <- result{rowNum: row.rowNum, status: "success"}
			}
		}()
	}

	go func() {
		for {
			rec, err := r.Read()
			if err == io.EOF {
				close(csvRows)
				return
			}
			if err != nil {
				logrus.Warnf("csv read: %v", err)
				atomic.AddInt64(&errorCount, 1)
				continue
			}
			rowNum++

			babyID := strings.TrimSpace(rec[0])
			recordedAtStr := strings.TrimSpace(rec[1])
			kind := strings.ToUpper(strings.TrimSpace(rec[2]))
			value := strings.TrimSpace(rec[3])
			note := strings.TrimSpace(rec[4])

			logrus.Debugf("Processing row %d: %s | %s | %s", rowNum, babyID, kind, recordedAtStr)

			if babyID == "" || kind == "" || recordedAtStr == "" {
				logrus.Warnf("row %d missing required fields", rowNum)
				atomic.AddInt64(&skipCount, 1)
				continue
			}

			recordedAt, err := time.Parse(time.RFC3339, recordedAtStr)
			if err != nil {
				logrus.Warnf("row %d bad timestamp %q: %v", rowNum, recordedAtStr, err)
				atomic.AddInt64(&skipCount, 1)
				continue
			}

			if measurementKinds[kind] && value == "" {
				logrus.Warnf("row %d measurement kind %s missing value", rowNum, kind)
				atomic.AddInt64(&skipCount, 1)
				continue
			}

			atomic.AddInt64(&totalRows, 1)
			csvRows <- csvRow{
				rowNum:     rowNum,
				babyID:     babyID,
				recordedAt: recordedAt,
				kind:       kind,
				value:      value,
				note:       note,
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		switch res.status {
		case "success":
			atomic.AddInt64(&successCount, 1)
		case "dupe_skip", "exists_skip":
			atomic.AddInt64(&skipCount, 1)
		case "error":
			atomic.AddInt64(&errorCount, 1)
		}
	}

	logrus.Infof("Import complete: %d rows, %d inserted, %d skipped, %d errors",
		atomic.LoadInt64(&totalRows),
		atomic.LoadInt64(&successCount),
		atomic.LoadInt64(&skipCount),
		atomic.LoadInt64(&errorCount))
}

func insertEntry(ctx context.Context, dbBackend *db.DB, row csvRow) error {
	entry := &db.TrackingEntry{
		ID:         uuid.New().String(),
		BabyID:     row.babyID,
		EntryType:  row.kind,
		RecordedAt: row.recordedAt,
		CreatedAt:  time.Now().UTC(),
	}

	if row.note != "" {
		entry.Note = &row.note
	}

	return dbBackend.CreateEntry(ctx, entry)
}

func insertMeasurement(ctx context.Context, dbBackend *db.DB, row csvRow) error {
	value, err := strconv.ParseFloat(row.value, 64)
	if err != nil {
		return err
	}

	measurement := &db.GrowthMeasurement{
		ID:         uuid.New().String(),
		BabyID:     row.babyID,
		RecordedAt: row.recordedAt,
		CreatedAt:  time.Now().UTC(),
	}

	switch row.kind {
	case "WEIGHT_G":
		measurement.WeightGrams = &value
	case "HEIGHT_MM":
		measurement.HeightMm = &value
	case "HEAD_MM":
		measurement.HeadCircumferenceMm = &value
	}

	return dbBackend.CreateMeasurement(ctx, measurement)
}
