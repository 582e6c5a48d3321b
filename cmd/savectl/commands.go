package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"savestate-server/internal/config"
	"savestate-server/internal/infrastructure/storage"
	"savestate-server/internal/infrastructure/storage/sqlite"
	"savestate-server/internal/persist"

	"github.com/spf13/cobra"
)

// options — общие флаги. Пустые значения берутся из окружения (как у сервера).
type options struct {
	backend string
	dir     string
	db      string
	codec   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "savectl",
		Short:        "Inspect and manage save slots",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "slot backend: sqlite or file (default SAVE_BACKEND)")
	root.PersistentFlags().StringVar(&opts.dir, "dir", "", "save directory for the file backend (default SAVE_DIR)")
	root.PersistentFlags().StringVar(&opts.db, "db", "", "sqlite database path (default SAVE_DB)")
	root.PersistentFlags().StringVar(&opts.codec, "codec", "", "payload codec for inspect --decode (default PAYLOAD_CODEC)")

	root.AddCommand(
		newListCmd(opts),
		newInspectCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newDeleteCmd(opts),
	)
	return root
}

// resolve накладывает флаги на конфиг из окружения.
func (o *options) resolve() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.backend != "" {
		cfg.SaveBackend = o.backend
	}
	if o.dir != "" {
		cfg.SaveDir = o.dir
	}
	if o.db != "" {
		cfg.SaveDB = o.db
	}
	if o.codec != "" {
		cfg.PayloadCodec = o.codec
	}
	return cfg, cfg.Validate()
}

func (o *options) openSlots() (storage.SlotStorage, error) {
	cfg, err := o.resolve()
	if err != nil {
		return nil, err
	}
	if cfg.SaveBackend == config.BackendFile {
		return storage.NewFileSlots(cfg.SaveDir)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SaveDB), 0o755); err != nil {
		return nil, err
	}
	return sqlite.Open(cfg.SaveDB)
}

// withSlots открывает хранилище на время одной команды.
func (o *options) withSlots(ctx context.Context, fn func(ctx context.Context, slots storage.SlotStorage) error) error {
	slots, err := o.openSlots()
	if err != nil {
		return err
	}
	defer slots.Close()
	return fn(ctx, slots)
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List save slots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSlots(cmd.Context(), func(ctx context.Context, slots storage.SlotStorage) error {
				infos, err := slots.List(ctx)
				if err != nil {
					return err
				}
				return printSlots(cmd.OutOrStdout(), infos)
			})
		},
	}
}

func printSlots(out io.Writer, infos []storage.SlotInfo) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSAVED\tENTRIES\tSIZE")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", info.Name, info.SavedAt.Local().Format(time.DateTime), info.EntryCount, info.Size)
	}
	return tw.Flush()
}

func newInspectCmd(opts *options) *cobra.Command {
	var decode bool

	cmd := &cobra.Command{
		Use:   "inspect <slot>",
		Short: "Show snapshot entries stored in a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var codec persist.Codec
			if decode {
				cfg, err := opts.resolve()
				if err != nil {
					return err
				}
				if codec, err = persist.CodecByName(cfg.PayloadCodec); err != nil {
					return err
				}
			}

			return opts.withSlots(cmd.Context(), func(ctx context.Context, slots storage.SlotStorage) error {
				slot, err := slots.Get(ctx, args[0])
				if err != nil {
					return err
				}
				snap, err := storage.DecodeSnapshot(slot.Data)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "slot %s: %d entries, %d bytes\n", slot.Name, snap.Len(), slot.Size)

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "OBJECT\tTYPE\tSIZE\tSTATE")
				for _, e := range snap.Entries() {
					state := "-"
					if codec != nil {
						state = decodePayload(codec, e.Payload)
					}
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", e.ObjectID, e.DataTypeID, len(e.Payload), state)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&decode, "decode", false, "decode payloads with the payload codec")
	return cmd
}

// decodePayload показывает полезную нагрузку как JSON, не зная типа компонента.
func decodePayload(codec persist.Codec, payload []byte) string {
	var v any
	if err := codec.Unmarshal(payload, &v); err != nil {
		return "<" + err.Error() + ">"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(data)
}

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <slot> <file>",
		Short: "Write a slot's snapshot blob to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSlots(cmd.Context(), func(ctx context.Context, slots storage.SlotStorage) error {
				slot, err := slots.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[1], slot.Data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", args[1], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%d entries) to %s\n", slot.Name, slot.EntryCount, args[1])
				return nil
			})
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file> <slot>",
		Short: "Store a snapshot blob file into a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			// Блоб проверяется целиком до записи, битый файл не должен стать слотом
			snap, err := storage.DecodeSnapshot(data)
			if err != nil {
				return err
			}

			return opts.withSlots(cmd.Context(), func(ctx context.Context, slots storage.SlotStorage) error {
				if err := slots.Put(ctx, args[1], data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries into %s\n", snap.Len(), args[1])
				return nil
			})
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slot>",
		Short: "Delete a save slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSlots(cmd.Context(), func(ctx context.Context, slots storage.SlotStorage) error {
				if err := slots.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}
