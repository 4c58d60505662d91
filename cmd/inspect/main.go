package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Read-only dump of the store, one row per key. Prefixes:
// conn: pair: notif: msg: conv: exp: idx:
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "conn:", "Prefix to scan")
	limit := flag.Int("limit", 200, "Maximum rows to print")
	flag.Parse()

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			if rows == *limit {
				break
			}
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append([]string{key, keyType(key), detail(v)})
				return nil
			})
			if err != nil {
				return err
			}
			rows++
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("\n%d rows\n", rows)
}

func keyType(key string) string {
	kind, _, ok := strings.Cut(key, ":")
	if !ok {
		return "RAW"
	}
	return strings.ToUpper(kind)
}

// detail compacts a JSON value for display, or shows raw bytes for
// index entries.
func detail(v []byte) string {
	var compact map[string]any
	if err := json.Unmarshal(v, &compact); err != nil {
		return truncate(string(v), 60)
	}
	b, err := json.Marshal(compact)
	if err != nil {
		return truncate(string(v), 60)
	}
	return truncate(string(b), 100)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
