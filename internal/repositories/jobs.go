package repositories

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaveStatus int

const (
	SaveFailed SaveStatus = iota
	SaveStored
	SaveDuplicate
)

func (s SaveStatus) String() string {
	switch s {
	case SaveStored:
		return "stored"
	case SaveDuplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

const maxStoredFieldLength = 500

var fieldCleaner = strings.NewReplacer("\x00", "", "\n", " ", "\r", " ")

func cleanField(value string) string {
	value = strings.TrimSpace(fieldCleaner.Replace(value))
	if runes := []rune(value); len(runes) > maxStoredFieldLength {
		value = string(runes[:maxStoredFieldLength])
	}
	return value
}

// Fingerprint identifies a logical posting. Fields are cleaned first, so
// surrounding whitespace and embedded line breaks do not change the result.
func Fingerprint(title, company, location, datePosted string) string {
	key := strings.Join([]string{
		cleanField(title),
		cleanField(company),
		cleanField(location),
		cleanField(datePosted),
	}, "_")
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

type Jobs struct {
	db  *gorm.DB
	now func() time.Time
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db, now: time.Now}
}

// Save inserts the job unless one with the same fingerprint is already
// stored. On SaveStored the job is updated with its fingerprint, id and
// creation time.
func (repo *Jobs) Save(ctx context.Context, job *entities.Job) (SaveStatus, error) {
	record := entities.Job{
		Title:      cleanField(job.Title),
		Company:    cleanField(job.Company),
		Location:   cleanField(job.Location),
		DatePosted: cleanField(job.DatePosted),
		Source:     cleanField(job.Source),
		SearchRole: cleanField(job.SearchRole),
		CreatedAt:  repo.now().UTC(),
	}
	record.Fingerprint = Fingerprint(record.Title, record.Company, record.Location, record.DatePosted)

	res := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "fingerprint"}}, DoNothing: true}).
		Create(&record)
	if res.Error != nil {
		return SaveFailed, errors.Wrapf(res.Error, "failed to insert job %q", record.Title)
	}

	job.Fingerprint = record.Fingerprint
	if res.RowsAffected == 0 {
		return SaveDuplicate, nil
	}

	*job = record
	return SaveStored, nil
}

func (repo *Jobs) Exists(ctx context.Context, fingerprint string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("fingerprint = ?", fingerprint).
		Count(&count).Error
	return count > 0, err
}

func (repo *Jobs) Count(ctx context.Context) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.Job{}).Count(&count).Error
	return count, err
}

func (repo *Jobs) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("created_at >= ?", since.UTC()).
		Count(&count).Error
	return count, err
}

func (repo *Jobs) DistinctCompanies(ctx context.Context) ([]string, error) {
	var companies []string
	err := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Distinct("company").
		Order("company").
		Pluck("company", &companies).Error
	return companies, err
}

func (repo *Jobs) Latest(ctx context.Context, limit int) ([]entities.Job, error) {
	var jobs []entities.Job
	err := repo.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
