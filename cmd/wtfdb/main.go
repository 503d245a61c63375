// Command wtfdb is a small scripted driver over the btree package,
// in the spirit of wtfDB's original main.go: open a database file,
// insert a handful of keys, and print the resulting tree shape.
//
// It is a CLI wrapper in the sense spec.md scopes out of the storage
// engine's core — useful for poking at a database file by hand, not a
// production entry point.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"

	"wtfdb/btree"
)

func main() {
	path := "db_files/wtfdb_demo.db"
	if err := os.MkdirAll("db_files", 0750); err != nil {
		log.Fatalf("unable to create database directory: %v", err)
	}

	t, err := btree.Open(path, btree.DefaultPageSize, btree.DefaultCacheCapacity)
	if err != nil {
		log.Fatalf("unable to open database: %v", err)
	}
	defer t.Close()

	for i := 1; i <= 9; i++ {
		key := int32(100 + i)
		value := fmt.Sprintf("v%d", rand.Intn(59))
		if _, err := t.Insert(key, []byte(value)); err != nil {
			log.Fatalf("insert %d failed: %v", key, err)
		}
		fmt.Printf("inserted %d=%q\n", key, value)
	}

	if err := t.DebugPrint(os.Stdout); err != nil {
		log.Fatalf("debug print failed: %v", err)
	}

	status, err := t.Status()
	if err != nil {
		log.Fatalf("status failed: %v", err)
	}
	fmt.Printf("status: %+v\n", status)
}
