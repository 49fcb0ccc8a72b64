package main

import (
	"fmt"
	"os"

	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/utils"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/proto"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Write the FileDescriptorSet of the output messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := proto.Marshal(pb.DescriptorSet())
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(path, data, 0o644)
		},
	}
	cmd.Flags().String("file", "", "output path, empty writes to stdout")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <message-value-file>...",
		Short: "Decode Kafka message values (type prefix + protobuf) into JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				line, err := decodeValueFile(path)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(out, "%s\n", line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func decodeValueFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	collectionType, body, err := utils.DecodeEventType(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	msg, err := pb.Unmarshal(collectionType, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pb.MarshalJSON(msg)
}
