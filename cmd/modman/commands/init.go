package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/modman/internal/app"
	"go.trai.ch/modman/internal/core/domain"
)

func (c *CLI) newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create modman.toml in the project directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gameVersion, _ := cmd.Flags().GetString("game-version")
			loaderName, _ := cmd.Flags().GetString("loader")
			channelNames, _ := cmd.Flags().GetStringSlice("channels")
			modsDir, _ := cmd.Flags().GetString("mods-dir")
			force, _ := cmd.Flags().GetBool("force")

			loader, err := domain.ParseLoader(loaderName)
			if err != nil {
				return err
			}
			channels := make([]domain.ReleaseChannel, 0, len(channelNames))
			for _, name := range channelNames {
				ch, err := domain.ParseReleaseChannel(name)
				if err != nil {
					return err
				}
				channels = append(channels, ch)
			}

			cfg, err := c.app.Init(cmd.Context(), c.root, app.InitOptions{
				GameVersion: gameVersion,
				Loader:      loader,
				Channels:    channels,
				ModsDir:     modsDir,
				Force:       force,
			})
			if err != nil {
				return err
			}
			if c.printer.Structured() {
				return c.printer.Encode(cfg)
			}
			c.printer.Done("Created " + domain.ConfigFileName + " for " + cfg.Loader.String() + " " + cfg.GameVersion)
			return nil
		},
	}
	cmd.Flags().String("game-version", "", "Game version mods must support, e.g. 1.21.1")
	cmd.Flags().String("loader", domain.LoaderFabric.String(), "Mod loader: fabric, quilt, forge or neoforge")
	cmd.Flags().StringSlice("channels", []string{domain.ChannelRelease.String()}, "Allowed release channels: release, beta, alpha")
	cmd.Flags().String("mods-dir", domain.DefaultModsDirName, "Mods directory, relative to the project directory")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing modman.toml")
	_ = cmd.MarkFlagRequired("game-version")
	return cmd
}
