// Package seed loads reference data (universities, courses and users) from a
// YAML catalog. Seeding is idempotent: entities that already exist, matched
// by university code, course code within its university, or user email, are
// left alone.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	coursestore "github.com/dalemusser/admitportal/internal/app/store/courses"
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	universitystore "github.com/dalemusser/admitportal/internal/app/store/universities"
	userstore "github.com/dalemusser/admitportal/internal/app/store/users"
	"github.com/dalemusser/admitportal/internal/app/system/auditlog"
	"github.com/dalemusser/admitportal/internal/app/system/inputval"
	"github.com/dalemusser/admitportal/internal/app/system/limits"
	"github.com/dalemusser/admitportal/internal/app/system/normalize"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Catalog is the on-disk seed format.
//
//	universities:
//	  - name: Northgate University
//	    code: NGU
//	    courses:
//	      - {name: Computer Science, code: CS100, level: undergraduate}
//	users:
//	  - {name: Dan Admin, email: dan@example.com, role: admin}
type Catalog struct {
	Universities []University `yaml:"universities"`
	Users        []User       `yaml:"users"`
}

// University is one catalog university with its courses.
type University struct {
	Name     string   `yaml:"name" validate:"required,max=200" label:"name"`
	Code     string   `yaml:"code" validate:"required,max=32" label:"code"`
	Location string   `yaml:"location" validate:"max=200" label:"location"`
	Website  string   `yaml:"website" validate:"omitempty,httpurl" label:"website"`
	Inactive bool     `yaml:"inactive"`
	Courses  []Course `yaml:"courses" validate:"-"`
}

// Course is one catalog course.
type Course struct {
	Name     string `yaml:"name" validate:"required,max=200" label:"name"`
	Code     string `yaml:"code" validate:"required,max=32" label:"code"`
	Level    string `yaml:"level" validate:"max=64" label:"level"`
	Inactive bool   `yaml:"inactive"`
}

// User is one catalog user.
type User struct {
	Name  string `yaml:"name" validate:"required,max=200" label:"name"`
	Email string `yaml:"email" validate:"required,email" label:"email"`
	Role  string `yaml:"role" validate:"required,role" label:"role"`
}

// Result counts the entities a seed run created.
type Result struct {
	Universities int
	Courses      int
	Users        int
}

// LoadFile reads and parses a catalog.
func LoadFile(path string) (Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read seed catalog: %w", err)
	}
	if info.Size() > limits.MaxSeedFile {
		return Catalog{}, fmt.Errorf("seed catalog %s is %d bytes, limit is %d", path, info.Size(), limits.MaxSeedFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read seed catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog and validates every entry.
func Parse(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse seed catalog: %w", err)
	}
	for i, u := range cat.Universities {
		if err := inputval.Validate(u).Err(); err != nil {
			return Catalog{}, fmt.Errorf("universities[%d]: %w", i, err)
		}
		for j, c := range u.Courses {
			if err := inputval.Validate(c).Err(); err != nil {
				return Catalog{}, fmt.Errorf("universities[%d].courses[%d]: %w", i, j, err)
			}
		}
	}
	for i, u := range cat.Users {
		if err := inputval.Validate(u).Err(); err != nil {
			return Catalog{}, fmt.Errorf("users[%d]: %w", i, err)
		}
	}
	return cat, nil
}

// Seeder applies catalogs to a store.
type Seeder struct {
	users   *userstore.Store
	unis    *universitystore.Store
	courses *coursestore.Store
	audit   *auditlog.Logger
	log     *zap.Logger
}

// New creates a Seeder. audit may be nil.
func New(ds *docstore.Store, audit *auditlog.Logger, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		users:   userstore.New(ds),
		unis:    universitystore.New(ds),
		courses: coursestore.New(ds),
		audit:   audit,
		log:     logger,
	}
}

// Apply creates whatever in cat does not exist yet. source names the catalog
// in logs and the audit trail. On error, entities created before the failure
// remain.
func (s *Seeder) Apply(ctx context.Context, cat Catalog, source string) (Result, error) {
	var res Result

	for _, cu := range cat.Universities {
		uni, created, err := s.university(ctx, cu)
		if err != nil {
			return res, fmt.Errorf("university %s: %w", cu.Code, err)
		}
		if created {
			res.Universities++
		}

		existing, err := s.courses.ListByUniversity(ctx, uni.ID, false)
		if err != nil {
			return res, fmt.Errorf("university %s: list courses: %w", cu.Code, err)
		}
		have := make(map[string]bool, len(existing))
		for _, c := range existing {
			have[c.Code] = true
		}
		for _, cc := range cu.Courses {
			if have[normalize.Code(cc.Code)] {
				continue
			}
			c, err := s.courses.Create(ctx, models.Course{
				UniversityID: uni.ID,
				Name:         cc.Name,
				Code:         cc.Code,
				Level:        cc.Level,
			})
			if err != nil {
				return res, fmt.Errorf("course %s/%s: %w", cu.Code, cc.Code, err)
			}
			if cc.Inactive {
				if err := s.courses.SetActive(ctx, c.ID, false); err != nil {
					return res, fmt.Errorf("course %s/%s: %w", cu.Code, cc.Code, err)
				}
			}
			res.Courses++
		}
	}

	for _, cu := range cat.Users {
		_, err := s.users.GetByEmail(ctx, cu.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return res, fmt.Errorf("user %s: %w", cu.Email, err)
		}
		if _, err := s.users.Create(ctx, models.User{FullName: cu.Name, Email: cu.Email, Role: cu.Role}); err != nil {
			return res, fmt.Errorf("user %s: %w", cu.Email, err)
		}
		res.Users++
	}

	s.log.Info("seed catalog applied",
		zap.String("source", source),
		zap.Int("universities_created", res.Universities),
		zap.Int("courses_created", res.Courses),
		zap.Int("users_created", res.Users))
	if s.audit != nil {
		s.audit.CatalogSeeded(ctx, source, res.Universities, res.Courses, res.Users)
	}
	return res, nil
}

func (s *Seeder) university(ctx context.Context, cu University) (models.University, bool, error) {
	uni, err := s.unis.GetByCode(ctx, cu.Code)
	if err == nil {
		return uni, false, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return models.University{}, false, err
	}
	uni, err = s.unis.Create(ctx, models.University{
		Name:     cu.Name,
		Code:     cu.Code,
		Location: cu.Location,
		Website:  cu.Website,
	})
	if err != nil {
		return models.University{}, false, err
	}
	if cu.Inactive {
		if err := s.unis.SetActive(ctx, uni.ID, false); err != nil {
			return models.University{}, false, err
		}
		uni.IsActive = false
	}
	return uni, true, nil
}
