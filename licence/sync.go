// Package licence keeps the LICENCE file of every repository in a GitHub
// organisation on the Apache 2.0 text with a current copyright line.
package licence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"licence-sync/config"
	"licence-sync/types"
	"licence-sync/util"
)

type Host interface {
	ListRepositories(ctx context.Context, org string, perPage int) ([]types.Repo, error)
	FetchFile(ctx context.Context, org, repo, path string) (*types.FileRecord, error)
	PutFile(ctx context.Context, org, repo string, req types.WriteRequest) (string, error)
	DeleteFile(ctx context.Context, org, repo, path, sha, message string) error
	TriggerWorkflow(ctx context.Context, org, repo, workflowID, ref string) error
}

type TemplateFetcher func(ctx context.Context) (string, error)

type Syncer struct {
	host     Host
	template TemplateFetcher
	cfg      config.Config
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Syncer)

// WithClock replaces the clock used to derive the copyright year.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		s.now = now
	}
}

// NewSyncer builds a Syncer. A nil logger discards output.
func NewSyncer(host Host, template TemplateFetcher, cfg config.Config, logger *zap.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Syncer{
		host:     host,
		template: template,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes every repository of the configured organisation and stops at
// the first error.
func (s *Syncer) Run(ctx context.Context) error {
	year := s.now().Year()

	repos, err := s.host.ListRepositories(ctx, s.cfg.Organisation, config.RepositoriesPerPage)
	if err != nil {
		return err
	}
	s.logger.Debug("listed repositories", zap.String("organisation", s.cfg.Organisation), zap.Int("count", len(repos)))

	template, err := s.template(ctx)
	if err != nil {
		return err
	}

	for _, repo := range repos {
		if err := s.syncRepository(ctx, repo, template, year); err != nil {
			return fmt.Errorf("repository %s: %w", repo.Name, err)
		}
	}

	s.logger.Info("licence sync complete", zap.String("organisation", s.cfg.Organisation), zap.Int("repositories", len(repos)))
	return nil
}

func (s *Syncer) syncRepository(ctx context.Context, repo types.Repo, template string, year int) error {
	org := s.cfg.Organisation
	name := repo.Name
	log := s.logger.With(zap.String("repository", name), zap.Bool("archived", repo.Archived))

	licence, err := s.host.FetchFile(ctx, org, name, config.LicenceFilePath)
	if err != nil {
		return err
	}
	license, err := s.host.FetchFile(ctx, org, name, config.LicenseFilePath)
	if err != nil {
		return err
	}

	if licence == nil && license == nil {
		_, err := s.host.PutFile(ctx, org, name, types.WriteRequest{
			Path:    config.LicenceFilePath,
			Content: []byte(template),
			Message: config.AddLicenceMessage,
		})
		if err != nil {
			return err
		}
		log.Info("added Apache 2.0 licence", zap.String("path", config.LicenceFilePath))
		return nil
	}

	// The copyright update works from the LICENCE read above, sha included,
	// even when the rename has since rewritten it. LICENSE stands in only when
	// there was no LICENCE.
	content := licence
	updateSha := ""
	if licence != nil {
		updateSha = licence.Sha
	} else {
		content = license
	}

	if license != nil {
		raw, err := util.DecodeContent(license)
		if err != nil {
			return err
		}
		newSha, err := s.host.PutFile(ctx, org, name, types.WriteRequest{
			Path:    config.LicenceFilePath,
			Content: raw,
			Message: config.RenameLicenceMessage,
			Sha:     license.Sha,
		})
		if err != nil {
			return err
		}
		log.Info("renamed LICENSE to LICENCE", zap.String("path", config.LicenceFilePath))

		if s.cfg.DeleteLicense {
			if err := s.host.DeleteFile(ctx, org, name, config.LicenseFilePath, license.Sha, config.RenameLicenceMessage); err != nil {
				return err
			}
			log.Info("deleted LICENSE", zap.String("path", config.LicenseFilePath))
		}

		if s.cfg.RefreshVersionToken {
			updateSha = newSha
		}
	}

	raw, err := util.DecodeContent(content)
	if err != nil {
		return err
	}
	updated := util.ApplyCopyright(string(raw), year, s.cfg.CopyrightOwner)

	_, err = s.host.PutFile(ctx, org, name, types.WriteRequest{
		Path:    config.LicenceFilePath,
		Content: []byte(updated),
		Message: config.UpdateLicenceMessage,
		Sha:     updateSha,
	})
	if err != nil {
		return err
	}
	log.Info("updated licence copyright", zap.String("path", config.LicenceFilePath), zap.Int("year", year))

	workflow, err := s.host.FetchFile(ctx, org, name, config.ReleaseWorkflowPath)
	if err != nil {
		return err
	}
	if workflow == nil {
		log.Debug("no release workflow", zap.String("path", config.ReleaseWorkflowPath))
		return nil
	}

	if err := s.host.TriggerWorkflow(ctx, org, name, config.ReleaseWorkflowID, config.WorkflowDispatchRef); err != nil {
		return err
	}
	log.Info("triggered release workflow", zap.String("workflow", config.ReleaseWorkflowID), zap.String("ref", config.WorkflowDispatchRef))
	return nil
}
