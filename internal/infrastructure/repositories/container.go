package repositories

import (
	"go.uber.org/dig"

	domainRepos "github.com/rios0rios0/downloader/internal/domain/repositories"
	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/command"
	cvsRepo "github.com/rios0rios0/downloader/internal/infrastructure/repositories/cvs"
	gitRepo "github.com/rios0rios0/downloader/internal/infrastructure/repositories/git"
	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/locks"
	hgRepo "github.com/rios0rios0/downloader/internal/infrastructure/repositories/mercurial"
	svnRepo "github.com/rios0rios0/downloader/internal/infrastructure/repositories/subversion"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(func() command.Runner {
		return command.NewExecRunner()
	}); err != nil {
		return err
	}

	// Register the VCS registry with every backend, in probing priority order
	if err := container.Provide(func(runner command.Runner) *VcsRegistry {
		reg := NewVcsRegistry()
		reg.Register(gitRepo.NewGitVcsRepository())
		reg.Register(hgRepo.NewMercurialVcsRepository(runner))
		reg.Register(svnRepo.NewSubversionVcsRepository(runner))
		reg.Register(cvsRepo.NewCvsVcsRepository(runner))
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(func() domainRepos.LockRepository {
		return locks.NewDirectoryLockRepository(locks.DefaultLockDir())
	}); err != nil {
		return err
	}

	return nil
}
