package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

// Mirrors the key layout of internal/store.
const indexSegment = "idx:"

type snapshotHeader struct {
	GameCode  string          `json:"gameCode"`
	Data      json.RawMessage `json:"data"`
	Gallery   json.RawMessage `json:"gallery,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/ArcadeSongs/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	fmt.Println("Dataset snapshots:")
	snapshots, err := each(db, "dataset:", func(val []byte) error {
		var snap snapshotHeader
		if err := json.Unmarshal(val, &snap); err != nil {
			return err
		}
		fmt.Printf("  %-12s data=%dB gallery=%dB fetched=%s\n",
			snap.GameCode, len(snap.Data), len(snap.Gallery), snap.FetchedAt.Format(time.RFC3339))
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to read snapshots: %v", err)
	}

	fmt.Println()
	fmt.Println("Saved combos:")
	perGame := map[string]int{}
	combos, err := each(db, "combo:", func(val []byte) error {
		var combo domain.Combo
		if err := json.Unmarshal(val, &combo); err != nil {
			return err
		}
		perGame[combo.GameCode]++
		// Show only the first few
		if perGame[combo.GameCode] <= 3 {
			fmt.Printf("  [%s] %s size=%d replacement=%t\n", combo.GameCode, combo.ID, combo.Size, combo.Replacement)
			for _, expr := range combo.SheetExprs {
				fmt.Printf("      %s\n", expr)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to read combos: %v", err)
	}
	for game, n := range perGame {
		fmt.Printf("  %s: %d combos\n", game, n)
	}

	fmt.Println()
	fmt.Println("Sheet selections:")
	selections, err := each(db, "selection:", func(val []byte) error {
		var sel domain.SheetSelection
		if err := json.Unmarshal(val, &sel); err != nil {
			return err
		}
		fmt.Printf("  [%s] owner=%q sheets=%d updated=%s\n",
			sel.GameCode, sel.Owner, len(sel.SheetExprs), sel.UpdatedAt.Format(time.RFC3339))
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to read selections: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Snapshots:  %d\n", snapshots)
	fmt.Printf("Combos:     %d\n", combos)
	fmt.Printf("Selections: %d\n", selections)
}

// each calls fn with the value of every record under prefix, skipping index keys.
func each(db *badger.DB, prefix string, fn func(val []byte) error) (int, error) {
	count := 0
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			if strings.HasPrefix(string(item.Key()), prefix+indexSegment) {
				continue
			}
			if err := item.Value(fn); err != nil {
				return fmt.Errorf("key %s: %w", item.Key(), err)
			}
			count++
		}
		return nil
	})
	return count, err
}
