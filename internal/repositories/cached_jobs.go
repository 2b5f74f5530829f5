package repositories

import (
	"context"
	"time"

	"github.com/maxaizer/jobalert/internal/entities"
	gocache "github.com/patrickmn/go-cache"
)

type jobRepository interface {
	Save(ctx context.Context, job *entities.Job) (SaveStatus, error)
}

// CachedJobs remembers fingerprints known to be stored so repeated scrapes of
// the same postings do not reach the database.
type CachedJobs struct {
	repo  jobRepository
	cache *gocache.Cache
}

func NewCachedJobs(repo jobRepository) *CachedJobs {
	return &CachedJobs{repo: repo, cache: gocache.New(24*time.Hour, time.Hour)}
}

func (c *CachedJobs) Save(ctx context.Context, job *entities.Job) (SaveStatus, error) {
	fingerprint := Fingerprint(job.Title, job.Company, job.Location, job.DatePosted)
	if _, found := c.cache.Get(fingerprint); found {
		job.Fingerprint = fingerprint
		return SaveDuplicate, nil
	}

	status, err := c.repo.Save(ctx, job)
	if status != SaveFailed {
		c.cache.SetDefault(fingerprint, struct{}{})
	}
	return status, err
}
