package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"licence-sync/config"
	"licence-sync/licence"
	"licence-sync/util"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the licence sync for the configured organisation",
	Long:  "Reads GITHUB_ACCESS_TOKEN, GITHUB_ORGANISATION and COPYRIGHT_OWNER from the environment (or .env) and remediates every repository.",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := util.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := util.NewGitHubClient(ctx, cfg.Token, cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return err
	}
	logger.Debug("github client started", zap.String("api", client.BaseURL.String()))

	template := func(ctx context.Context) (string, error) {
		return util.FetchLicenceTemplate(ctx, cfg.LicenceURL, cfg.RequestTimeout)
	}

	syncer := licence.NewSyncer(util.NewGitHub(client), template, cfg, logger)
	if err := syncer.Run(ctx); err != nil {
		logger.Error("licence sync failed", zap.Error(err))
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
