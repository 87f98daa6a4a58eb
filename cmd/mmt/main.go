package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/DavidBuchanan314/merkle-merge-tree/forest"
	"github.com/DavidBuchanan314/merkle-merge-tree/treestore"
)

func main() {
	app := &cli.App{
		Name:  "mmt",
		Usage: "authenticated insert-only multiset backed by a merkle forest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "log directory",
				Value: ".mmt",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log at debug level",
			},
		},
		Commands: []*cli.Command{
			cmdInit,
			cmdAdd,
			cmdRoot,
			cmdContains,
			cmdProve,
			cmdVerify,
			cmdSweep,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(cctx *cli.Context) (*treestore.Store, error) {
	logger := zap.NewNop()
	if cctx.Bool("verbose") {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}
	dir := cctx.String("dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return treestore.NewStore(osfs.New(dir), treestore.WithLogger(logger))
}

func loadForest(cctx *cli.Context) (*treestore.Store, *forest.Forest, error) {
	store, err := openStore(cctx)
	if err != nil {
		return nil, nil, err
	}
	f, err := store.LoadForest()
	if err != nil {
		return nil, nil, err
	}
	return store, f, nil
}

var cmdInit = &cli.Command{
	Name:  "init",
	Usage: "create an empty log",
	Action: func(cctx *cli.Context) error {
		store, err := openStore(cctx)
		if err != nil {
			return err
		}
		if _, err := store.LoadForest(); err == nil {
			return errors.New("log already initialized")
		} else if !errors.Is(err, treestore.ErrManifestNotFound) {
			return err
		}
		f := forest.New()
		if err := store.SaveForest(f); err != nil {
			return err
		}
		fmt.Printf("%x\n", f.Root())
		return nil
	},
}

var cmdAdd = &cli.Command{
	Name:      "add",
	Usage:     "insert one value per argument, or lines from stdin with no arguments",
	ArgsUsage: "[value ...]",
	Action: func(cctx *cli.Context) error {
		store, f, err := loadForest(cctx)
		if err != nil {
			return err
		}

		values := cctx.Args().Slice()
		if len(values) == 0 {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				values = append(values, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return err
			}
		}

		for _, v := range values {
			if f, err = f.Insert([]byte(v)); err != nil {
				return err
			}
		}
		if err := store.SaveForest(f); err != nil {
			return err
		}
		fmt.Printf("%x\n", f.Root())
		return nil
	},
}

var cmdRoot = &cli.Command{
	Name:  "root",
	Usage: "print the forest root",
	Action: func(cctx *cli.Context) error {
		_, f, err := loadForest(cctx)
		if err != nil {
			return err
		}
		fmt.Printf("%x\n", f.Root())
		return nil
	},
}

var cmdContains = &cli.Command{
	Name:      "contains",
	Usage:     "report membership of a value",
	ArgsUsage: "<value>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return errors.New("expected exactly one value")
		}
		_, f, err := loadForest(cctx)
		if err != nil {
			return err
		}
		if f.Contains([]byte(cctx.Args().First())) {
			fmt.Println("present")
			return nil
		}
		fmt.Println("absent")
		return nil
	},
}

var cmdProve = &cli.Command{
	Name:      "prove",
	Usage:     "emit an inclusion proof for a present value, an exclusion proof otherwise",
	ArgsUsage: "<value>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return errors.New("expected exactly one value")
		}
		_, f, err := loadForest(cctx)
		if err != nil {
			return err
		}
		codec, err := forest.NewProofCodec()
		if err != nil {
			return err
		}

		value := []byte(cctx.Args().First())

		var wire []byte
		if ip, err := f.ProveInclusion(value); err != nil {
			return err
		} else if ip != nil {
			if wire, err = codec.EncodeInclusion(ip); err != nil {
				return err
			}
		} else {
			ep, err := f.ProveExclusion(value)
			if err != nil {
				return err
			}
			if wire, err = codec.EncodeExclusion(ep); err != nil {
				return err
			}
		}
		fmt.Printf("%x\n", wire)
		return nil
	},
}

var cmdVerify = &cli.Command{
	Name:      "verify",
	Usage:     "verify a hex encoded proof against a forest root",
	ArgsUsage: "<proof-hex>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "root",
			Usage: "expected forest root in hex; defaults to the stored forest's root",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return errors.New("expected exactly one hex proof")
		}
		wire, err := hex.DecodeString(cctx.Args().First())
		if err != nil {
			return err
		}

		var root []byte
		if rootHex := cctx.String("root"); rootHex != "" {
			if root, err = hex.DecodeString(rootHex); err != nil {
				return err
			}
		} else {
			_, f, err := loadForest(cctx)
			if err != nil {
				return err
			}
			root = f.Root()
		}

		codec, err := forest.NewProofCodec()
		if err != nil {
			return err
		}
		ip, ep, err := codec.Decode(wire)
		if err != nil {
			return err
		}

		ok := false
		switch {
		case ip != nil:
			ok = ip.Verify(root)
		case ep != nil:
			ok = ep.Verify(root)
		}
		if !ok {
			fmt.Println("invalid")
			os.Exit(1)
		}
		fmt.Println("valid")
		return nil
	},
}

var cmdSweep = &cli.Command{
	Name:  "sweep",
	Usage: "remove tree files no longer referenced by the manifest",
	Action: func(cctx *cli.Context) error {
		store, err := openStore(cctx)
		if err != nil {
			return err
		}
		removed, err := store.Sweep()
		if err != nil {
			return err
		}
		fmt.Printf("removed %d files\n", removed)
		return nil
	},
}
