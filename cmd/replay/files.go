package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/txadapter"

	"github.com/spf13/cobra"
)

func newFixtureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fixture <file.yaml|dir>...",
		Short: "Replay YAML block fixtures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayFiles(cmd, args, []string{".yaml", ".yml"}, txadapter.LoadFixture)
		},
	}
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.pb|dir>...",
		Short: "Replay protobuf Geyser block dumps written by the live indexer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayFiles(cmd, args, []string{".pb"}, txadapter.LoadBlockDump)
		},
	}
}

func replayFiles(cmd *cobra.Command, args, exts []string, load func(string) (*core.Block, error)) error {
	r, err := newReplayer(cmd)
	if err != nil {
		return err
	}
	defer r.summary()

	paths, err := expandInputs(args, exts)
	if err != nil {
		return err
	}
	for _, path := range paths {
		block, err := load(path)
		if err != nil {
			return err
		}
		if _, err := r.process(block); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// expandInputs 展开目录参数，目录内文件按名称排序
func expandInputs(args, exts []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !hasExt(e.Name(), exts) {
				continue
			}
			found = append(found, filepath.Join(arg, e.Name()))
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
