/*
 *
 * Copyright 2025 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// framedump reads framed messages from a file (or stdin) and prints each
// message's segment table, validating the envelope exactly as a receiver
// would.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bboreham/capnproto/serialize"
)

var traversalLimit uint64

var rootCmd = &cobra.Command{
	Use:   "framedump [file]",
	Short: "Print the segment tables of framed messages",
	Long: `framedump parses one or more framed messages from a file or stdin
and prints each message's segment table, applying the same envelope
validation a receiver would.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := os.Stdin
		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return dump(in)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().Uint64Var(&traversalLimit, "limit",
		serialize.DefaultTraversalLimitInWords,
		"traversal limit in words applied to each message")
}

func dump(in io.Reader) error {
	opts := serialize.ReaderOptions{TraversalLimitInWords: traversalLimit}
	stream := serialize.NewInputStream(in)

	for index := 0; ; index++ {
		reader, err := serialize.NewStreamReader(stream, opts, nil)
		if err != nil {
			if reader == nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("message %d: %w", index, err)
			}
			// Rejected but recovered: report and stop, the stream
			// position is no longer trustworthy.
			return fmt.Errorf("message %d rejected: %w", index, err)
		}

		fmt.Printf("=== Message %d ===\n", index)
		fmt.Printf("Segments: %d\n", reader.SegmentCount())
		total := 0
		for id := uint32(0); id < reader.SegmentCount(); id++ {
			segment, err := reader.GetSegment(id)
			if err != nil {
				return fmt.Errorf("message %d segment %d: %w", index, id, err)
			}
			fmt.Printf("  segment %d: %d words\n", id, len(segment))
			total += len(segment)
		}
		fmt.Printf("Total: %d words (%d bytes)\n", total, total*serialize.WordSize)

		if err := reader.Close(); err != nil {
			logrus.WithError(err).Warn("failed to finish message")
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
