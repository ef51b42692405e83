package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nhle/collab-todo/internal/credential"
	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/setup"
)

func initCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively create the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := model.LoadConfig(*configPath, nil)
			if err != nil {
				return err
			}

			var secrets setup.SecretStore
			if vault, err := credential.Open(); err != nil {
				log.Warn("keyring unavailable, secrets will not be stored", "err", err)
			} else {
				secrets = vault
			}

			return setup.Run(cmd.Context(), *configPath, base, secrets, cmd.OutOrStdout())
		},
	}
}
