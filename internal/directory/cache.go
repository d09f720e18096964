package directory

import (
	"context"
	"sync"
	"time"

	"clinicbook/internal/session"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"

	"golang.org/x/sync/errgroup"
)

type DoctorLister interface {
	List(ctx context.Context, token string) ([]model.Doctor, error)
}

type PatientLister interface {
	List(ctx context.Context, token string) ([]model.Patient, error)
}

// Snapshot is the directory as last fetched, in collaborator order.
type Snapshot struct {
	Doctors     []model.Doctor
	Patients    []model.Patient
	RefreshedAt time.Time
	Stale       bool
}

// Cache holds the doctor and patient lists behind the admin selection
// controls. Each refresh replaces both lists wholesale.
type Cache struct {
	mu          sync.RWMutex
	doctorsAPI  DoctorLister
	patientsAPI PatientLister
	log         *logger.Logger

	doctors     []model.Doctor
	patients    []model.Patient
	refreshedAt time.Time
	stale       bool
	activeToken string
}

func NewCache(doctors DoctorLister, patients PatientLister, log *logger.Logger) *Cache {
	return &Cache{
		doctorsAPI:  doctors,
		patientsAPI: patients,
		log:         log.Component("directory"),
	}
}

// Activate refreshes once per session; later calls with the same session
// return the cached snapshot.
func (c *Cache) Activate(ctx context.Context, sess *session.Session) (Snapshot, error) {
	if err := session.Require(sess); err != nil {
		return Snapshot{}, err
	}

	c.mu.RLock()
	active := c.activeToken == sess.Token()
	c.mu.RUnlock()
	if active {
		return c.Snapshot(), nil
	}
	return c.Refresh(ctx, sess)
}

// Refresh fetches doctors and patients concurrently. On failure the previous
// lists stay in place and are marked stale.
func (c *Cache) Refresh(ctx context.Context, sess *session.Session) (Snapshot, error) {
	if err := session.Require(sess); err != nil {
		return Snapshot{}, err
	}

	var (
		doctors  []model.Doctor
		patients []model.Patient
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doctors, err = c.doctorsAPI.List(gctx, sess.Token())
		return err
	})
	g.Go(func() error {
		var err error
		patients, err = c.patientsAPI.List(gctx, sess.Token())
		return err
	})
	if err := g.Wait(); err != nil {
		c.log.Warn("Directory refresh failed", "error", err)
		c.MarkStale()
		return Snapshot{}, err
	}

	c.mu.Lock()
	c.doctors = doctors
	c.patients = patients
	c.refreshedAt = time.Now()
	c.stale = false
	c.activeToken = sess.Token()
	c.mu.Unlock()

	c.log.Info("Directory refreshed", "doctors", len(doctors), "patients", len(patients))
	return c.Snapshot(), nil
}

// MarkStale flags the lists as outdated after a local create.
func (c *Cache) MarkStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
}

func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Doctors:     append([]model.Doctor(nil), c.doctors...),
		Patients:    append([]model.Patient(nil), c.patients...),
		RefreshedAt: c.refreshedAt,
		Stale:       c.stale,
	}
}

func (c *Cache) Doctor(id model.ID) (model.Doctor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.doctors {
		if d.ID == id {
			return d, true
		}
	}
	return model.Doctor{}, false
}

func (c *Cache) Patient(id model.ID) (model.Patient, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.patients {
		if p.ID == id {
			return p, true
		}
	}
	return model.Patient{}, false
}

// Reset drops everything; the next Activate fetches again.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doctors = nil
	c.patients = nil
	c.refreshedAt = time.Time{}
	c.stale = false
	c.activeToken = ""
}
