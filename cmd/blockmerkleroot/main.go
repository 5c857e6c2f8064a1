// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

// Command blockmerkleroot reads newline-delimited leaf payloads from a
// file (or stdin) and prints the Merkle root of the resulting block.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/ethereum/go-ethereum/log"

	"github.com/holisticode/blockmerkle/blockitem"
	"github.com/holisticode/blockmerkle/blockstream"
)

var (
	heightFlag = cli.Uint64Flag{
		Name:  "height",
		Usage: "block height to compute the root for",
		Value: 0,
	}
	inputFlag = cli.StringFlag{
		Name:  "input",
		Usage: "file of newline-delimited leaf payloads; defaults to stdin",
	}
	storeFlag = cli.StringFlag{
		Name:  "store",
		Usage: "leveldb directory to persist the finalized root to; omit to skip persistence",
	}
	parallelismFlag = cli.IntFlag{
		Name:  "parallelism",
		Usage: "maximum number of concurrent hashing workers",
		Value: blockstream.Parallelism,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "blockmerkleroot"
	app.Usage = "compute the Merkle root of a stream of block-item leaves"
	app.Flags = []cli.Flag{heightFlag, inputFlag, storeFlag, parallelismFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Crit("blockmerkleroot: fatal error", "err", err)
	}
}

func run(ctx *cli.Context) error {
	height := ctx.Uint64(heightFlag.Name)

	var store *blockstream.Store
	if path := ctx.String(storeFlag.Name); path != "" {
		s, err := blockstream.OpenStore(path)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	manager := blockstream.NewManagerWithParallelism(store, ctx.Int(parallelismFlag.Name))

	input := os.Stdin
	if path := ctx.String(inputFlag.Name); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("blockmerkleroot: opening %s: %w", path, err)
		}
		defer f.Close()
		input = f
	}

	count, err := feedLeaves(manager, height, input)
	if err != nil {
		return err
	}
	log.Info("blockmerkleroot: leaves ingested", "height", height, "count", count)

	root, err := manager.Finalize(context.Background(), height)
	if err != nil {
		return fmt.Errorf("blockmerkleroot: finalizing height %d: %w", height, err)
	}

	fmt.Printf("%s\n", root)
	return nil
}

func feedLeaves(manager *blockstream.Manager, height uint64, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		payload := make([]byte, len(line))
		copy(payload, line)
		if err := manager.AddLeaf(height, blockitem.New(payload)); err != nil {
			return count, fmt.Errorf("blockmerkleroot: adding leaf %d: %w", count, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("blockmerkleroot: reading input: %w", err)
	}
	return count, nil
}
