package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cperrin88/assetmirror/internal/logger"
	"github.com/cperrin88/assetmirror/pkg/archive"
)

// Number of arguments expected by the unpack command.
const unpackCommandArgs = 2

// NewPackCmd creates the pack command.
func NewPackCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "pack [ARCHIVE]",
		Short: "Pack the mirrored assets into an archive",
		Long: `Pack every file under the destination directory into a single archive.
The format follows the extension: .tar.gz, .tgz, .tar.zst, .tar or .zip.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath := DefaultArchiveName
			if len(args) == 1 {
				archivePath = args[0]
			}
			return runPack(cmd, source, archivePath)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "directory to pack (default: dest_dir from config)")

	return cmd
}

// NewUnpackCmd creates the unpack command.
func NewUnpackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpack ARCHIVE DIR",
		Short: "Restore a packed asset archive",
		Long:  "Extract the regular files of an archive created by pack into DIR",
		Args:  cobra.ExactArgs(unpackCommandArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnpack(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runPack(cmd *cobra.Command, source, archivePath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if source == "" {
		source = cfg.Settings.DestDir
	}

	count, err := archive.NewManager().Create(commandContext(cmd), source, archivePath)
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", source, err)
	}

	logger.Success("Archive created", logger.Fields{"archive": archivePath, "files": count})
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files\n", archivePath, count)
	return err
}

func runUnpack(cmd *cobra.Command, archivePath, destDir string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	count, err := archive.NewManager().ExtractAll(commandContext(cmd), archivePath, destDir)
	if err != nil {
		return fmt.Errorf("failed to unpack %s: %w", archivePath, err)
	}

	logger.Success("Archive extracted", logger.Fields{"archive": archivePath, "dest": destDir, "files": count})
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files\n", destDir, count)
	return err
}
