package main

import (
	"fmt"
	"log"

	"blinkdb/pkg/config"
	"blinkdb/pkg/core/blink"
)

func main() {
	tree, err := blink.NewTree(config.Default().Tree)
	if err != nil {
		log.Fatalf("Failed to create tree: %v", err)
	}

	res, err := tree.Query("nope")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	fmt.Printf("Size of the result set=%d\n", len(res))
}
