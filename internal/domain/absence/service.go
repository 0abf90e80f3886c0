package absence

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/attachment"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/auth"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/settings"
	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/metrics"
	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/querier"
)

// Service drives the absence lifecycle. Every ledger-affecting operation runs
// inside a single transaction spanning the absence write and the balance
// write(s); any domain failure rolls the whole mutation back.
type Service struct {
	Begin       querier.Beginner
	Store       *Store
	Users       *auth.Store
	Settings    *settings.Service
	Attachments *attachment.Store
	Metrics     *metrics.Metrics
	ChunkSize   int
}

func NewService(begin querier.Beginner, store *Store, users *auth.Store, settingsSvc *settings.Service, attachments *attachment.Store, m *metrics.Metrics, chunkSize int) *Service {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Service{Begin: begin, Store: store, Users: users, Settings: settingsSvc, Attachments: attachments, Metrics: m, ChunkSize: chunkSize}
}

type Input struct {
	UserID       string
	Name         string
	Type         Type
	SubType      string
	RecordType   RecordType
	AbsenceHours float64
	BusinessYear string
	StartDate    time.Time
	EndDate      time.Time
	Reason       string
	Observations string
}

func (in Input) validate(snap settings.Snapshot) error {
	verr := &ValidationError{}
	if strings.TrimSpace(in.UserID) == "" {
		verr.Add("userId")
	}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name")
	}
	if in.Type != TypeVacation && in.Type != TypeAbsence {
		verr.Add("type")
	}
	switch in.RecordType {
	case RecordDay, RecordHalfDay:
	case RecordHours:
		if in.AbsenceHours <= 0 {
			verr.Add("absenceHours")
		}
	default:
		verr.Add("recordType")
	}
	if in.StartDate.IsZero() {
		verr.Add("startDate")
	}
	if in.EndDate.IsZero() || in.EndDate.Before(in.StartDate) {
		verr.Add("endDate")
	}
	if in.Type == TypeAbsence {
		if strings.TrimSpace(in.SubType) == "" {
			verr.Add("subType")
		}
		if strings.TrimSpace(in.Reason) == "" {
			verr.Add("reason")
		}
	}
	if in.Type == TypeVacation && in.BusinessYear != snap.CurrentYear && in.BusinessYear != snap.PreviousYear {
		verr.Add("businessYear")
	}
	return verr.OrNil()
}

func (s *Service) actorFor(ctx context.Context, viewer auth.UserContext, ownerID string) (Actor, error) {
	actor := Actor{
		UserID: viewer.UserID,
		Admin:  auth.RoleHasPermission(viewer.Role, auth.PermTimeOffAdmin),
	}
	if viewer.Role == auth.RoleManager && viewer.UserID != ownerID {
		manages, err := s.Users.IsManagerOf(ctx, viewer.UserID, ownerID)
		if err != nil {
			return actor, err
		}
		actor.ManagerOfOwner = manages
	}
	return actor, nil
}

func (s *Service) buildAbsence(ctx context.Context, in Input, snap settings.Snapshot) (Absence, error) {
	holidays, err := s.Store.HolidaysBetween(ctx, in.StartDate, in.EndDate)
	if err != nil {
		return Absence{}, err
	}
	workDays, err := CalculateWorkDays(in.RecordType, in.StartDate, in.EndDate, in.AbsenceHours, snap.MaxHoursPerDay, holidays)
	if err != nil {
		verr := &ValidationError{}
		verr.Add("dates")
		return Absence{}, verr
	}

	a := Absence{
		UserID:       in.UserID,
		Name:         in.Name,
		Type:         in.Type,
		SubType:      in.SubType,
		RecordType:   in.RecordType,
		BusinessYear: in.BusinessYear,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Reason:       in.Reason,
		Observations: in.Observations,
	}
	if in.Type == TypeVacation {
		a.WorkDays = workDays
	} else if in.RecordType == RecordHours {
		a.AbsenceHours = in.AbsenceHours
	}
	return a, nil
}

// Create validates, resolves approval, debits the ledger and persists, all or
// nothing.
func (s *Service) Create(ctx context.Context, viewer auth.UserContext, in Input) (Absence, error) {
	snap, err := s.Settings.Snapshot(ctx)
	if err != nil {
		return Absence{}, err
	}
	if in.UserID == "" {
		in.UserID = viewer.UserID
	}
	if err := in.validate(snap); err != nil {
		return Absence{}, err
	}

	actor, err := s.actorFor(ctx, viewer, in.UserID)
	if err != nil {
		return Absence{}, err
	}
	if !actor.CanMutate(in.UserID) {
		return Absence{}, ErrPermissionDenied
	}

	owner, err := s.Users.UserByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return Absence{}, ErrNotFound
		}
		return Absence{}, err
	}

	a, err := s.buildAbsence(ctx, in, snap)
	if err != nil {
		return Absence{}, err
	}
	a.ID = uuid.NewString()
	autoApprove := owner.AutoApprove || owner.Role == auth.RoleAdmin
	a.Status, a.ApproverID = ResolveApproval(owner.ID, owner.ManagerID, autoApprove)

	ledger := NewLedger(YearContext{Current: snap.CurrentYear, Previous: snap.PreviousYear})

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		users := s.Users.WithTx(tx)
		current, prev, version, err := users.Balance(ctx, owner.ID)
		if err != nil {
			return err
		}
		balance, changed, err := ledger.ApplyOnCreate(Balance{CurrentYear: current, PrevYear: prev}, a)
		if err != nil {
			return err
		}
		if err := s.Store.WithTx(tx).Insert(ctx, a); err != nil {
			return err
		}
		if changed {
			if err := users.UpdateBalance(ctx, owner.ID, balance.CurrentYear, balance.PrevYear, version); err != nil {
				return err
			}
			s.countBalanceWrite()
		}
		return nil
	})
	if err != nil {
		s.countInsufficient(err)
		return Absence{}, err
	}
	if s.Metrics != nil {
		s.Metrics.AbsencesCreated.Inc()
	}
	return s.Store.FindByID(ctx, a.ID)
}

// Update edits an absence. A type change between vacation and absence runs
// its own refund/debit; the edit delta then applies only when the record
// stayed a vacation, so the two corrections never overlap.
func (s *Service) Update(ctx context.Context, viewer auth.UserContext, id string, in Input) (Absence, error) {
	snap, err := s.Settings.Snapshot(ctx)
	if err != nil {
		return Absence{}, err
	}

	old, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return Absence{}, err
	}
	if in.UserID == "" {
		in.UserID = old.UserID
	}
	if in.UserID != old.UserID {
		verr := &ValidationError{}
		verr.Add("userId")
		return Absence{}, verr
	}

	actor, err := s.actorFor(ctx, viewer, old.UserID)
	if err != nil {
		return Absence{}, err
	}
	if !actor.CanMutate(old.UserID) {
		return Absence{}, ErrPermissionDenied
	}
	if old.Status == StatusDone && !actor.Admin {
		return Absence{}, ErrPermissionDenied
	}
	if old.Status == StatusCancelled {
		return Absence{}, ErrInvalidState
	}
	if err := in.validate(snap); err != nil {
		return Absence{}, err
	}

	owner, err := s.Users.UserByID(ctx, old.UserID)
	if err != nil {
		return Absence{}, err
	}

	updated, err := s.buildAbsence(ctx, in, snap)
	if err != nil {
		return Absence{}, err
	}
	updated.ID = old.ID
	updated.HasAttachments = old.HasAttachments
	updated.CreatedAt = old.CreatedAt
	autoApprove := owner.AutoApprove || owner.Role == auth.RoleAdmin
	updated = ApplyEditTransition(old, updated, owner.ManagerID, autoApprove)

	ledger := NewLedger(YearContext{Current: snap.CurrentYear, Previous: snap.PreviousYear})

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		users := s.Users.WithTx(tx)
		current, prev, version, err := users.Balance(ctx, owner.ID)
		if err != nil {
			return err
		}
		balance := Balance{CurrentYear: current, PrevYear: prev}

		var changed bool
		if old.Type != updated.Type {
			balance, changed, err = ledger.ApplyOnTypeChange(balance, old, updated)
		} else {
			balance, changed, err = ledger.ApplyOnEdit(balance, old, updated)
		}
		if err != nil {
			return err
		}

		if err := s.Store.WithTx(tx).Update(ctx, updated); err != nil {
			return err
		}
		if changed {
			if err := users.UpdateBalance(ctx, owner.ID, balance.CurrentYear, balance.PrevYear, version); err != nil {
				return err
			}
			s.countBalanceWrite()
		}
		return nil
	})
	if err != nil {
		s.countInsufficient(err)
		return Absence{}, err
	}
	return s.Store.FindByID(ctx, id)
}

// Approve has no ledger effect; days were debited at create/edit time.
func (s *Service) Approve(ctx context.Context, viewer auth.UserContext, id string) (Absence, error) {
	return s.decide(ctx, viewer, id, func(a Absence, now time.Time) (Absence, error) {
		return Approve(a, viewer.UserID, now)
	}, false)
}

// Deny refunds the (post-edit) vacation work-days inside the same
// transaction as the status write.
func (s *Service) Deny(ctx context.Context, viewer auth.UserContext, id string) (Absence, error) {
	return s.decide(ctx, viewer, id, func(a Absence, now time.Time) (Absence, error) {
		return Deny(a, viewer.UserID, now)
	}, true)
}

func (s *Service) decide(ctx context.Context, viewer auth.UserContext, id string, transition func(Absence, time.Time) (Absence, error), refund bool) (Absence, error) {
	a, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return Absence{}, err
	}

	actor, err := s.actorFor(ctx, viewer, a.UserID)
	if err != nil {
		return Absence{}, err
	}
	canApprove := auth.RoleHasPermission(viewer.Role, auth.PermTimeOffApprove)
	if !actor.Admin && !(canApprove && (actor.ManagerOfOwner || a.ApproverID == viewer.UserID)) {
		return Absence{}, ErrPermissionDenied
	}

	updated, err := transition(a, time.Now().UTC())
	if err != nil {
		return Absence{}, err
	}

	snap, err := s.Settings.Snapshot(ctx)
	if err != nil {
		return Absence{}, err
	}
	ledger := NewLedger(YearContext{Current: snap.CurrentYear, Previous: snap.PreviousYear})

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.WithTx(tx).Update(ctx, updated); err != nil {
			return err
		}
		if !refund {
			return nil
		}
		users := s.Users.WithTx(tx)
		current, prev, version, err := users.Balance(ctx, a.UserID)
		if err != nil {
			return err
		}
		balance, changed := ledger.ApplyOnDeny(Balance{CurrentYear: current, PrevYear: prev}, a)
		if !changed {
			return nil
		}
		if err := users.UpdateBalance(ctx, a.UserID, balance.CurrentYear, balance.PrevYear, version); err != nil {
			return err
		}
		s.countBalanceWrite()
		return nil
	})
	if err != nil {
		return Absence{}, err
	}
	return s.Store.FindByID(ctx, id)
}

// Cancel moves a record to CANCELLED. The record stays in listings but drops
// out of the calendar; the ledger refund mirrors delete, so a denied record
// cancels without a balance write.
func (s *Service) Cancel(ctx context.Context, viewer auth.UserContext, id string) (Absence, error) {
	a, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return Absence{}, err
	}

	actor, err := s.actorFor(ctx, viewer, a.UserID)
	if err != nil {
		return Absence{}, err
	}
	if !actor.CanMutate(a.UserID) {
		return Absence{}, ErrPermissionDenied
	}

	updated, err := Cancel(a)
	if err != nil {
		return Absence{}, err
	}

	snap, err := s.Settings.Snapshot(ctx)
	if err != nil {
		return Absence{}, err
	}
	ledger := NewLedger(YearContext{Current: snap.CurrentYear, Previous: snap.PreviousYear})

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.WithTx(tx).Update(ctx, updated); err != nil {
			return err
		}
		users := s.Users.WithTx(tx)
		current, prev, version, err := users.Balance(ctx, a.UserID)
		if err != nil {
			return err
		}
		balance, changed := ledger.ApplyOnDelete(Balance{CurrentYear: current, PrevYear: prev}, a)
		if !changed {
			return nil
		}
		if err := users.UpdateBalance(ctx, a.UserID, balance.CurrentYear, balance.PrevYear, version); err != nil {
			return err
		}
		s.countBalanceWrite()
		return nil
	})
	if err != nil {
		return Absence{}, err
	}
	return s.Store.FindByID(ctx, id)
}

// Delete soft-deletes the record and its attachments, refunding the debit
// unless the absence was already denied.
func (s *Service) Delete(ctx context.Context, viewer auth.UserContext, id string) error {
	a, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	actor, err := s.actorFor(ctx, viewer, a.UserID)
	if err != nil {
		return err
	}
	if !actor.CanMutate(a.UserID) {
		return ErrPermissionDenied
	}

	snap, err := s.Settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	ledger := NewLedger(YearContext{Current: snap.CurrentYear, Previous: snap.PreviousYear})

	return s.inTx(ctx, func(tx pgx.Tx) error {
		store := s.Store.WithTx(tx)
		if err := store.SoftDelete(ctx, id); err != nil {
			return err
		}
		if err := s.Attachments.WithTx(tx).DeleteByAbsence(ctx, id); err != nil {
			return err
		}

		users := s.Users.WithTx(tx)
		current, prev, version, err := users.Balance(ctx, a.UserID)
		if err != nil {
			return err
		}
		balance, changed := ledger.ApplyOnDelete(Balance{CurrentYear: current, PrevYear: prev}, a)
		if !changed {
			if a.Type == TypeVacation && a.Status != StatusDenied {
				slog.Warn("vacation delete refund skipped for untracked year", "absenceId", a.ID, "businessYear", a.BusinessYear)
			}
			return nil
		}
		if err := users.UpdateBalance(ctx, a.UserID, balance.CurrentYear, balance.PrevYear, version); err != nil {
			return err
		}
		s.countBalanceWrite()
		return nil
	})
}

type BulkResult struct {
	Updated int `json:"updated"`
}

// BulkPatch applies one status change across an id list. Approve is a plain
// bulk status write; deny/pending aggregate one ledger refund per user and
// business year before the status write. Batches run in fixed-size chunks.
func (s *Service) BulkPatch(ctx context.Context, viewer auth.UserContext, ids []string, action BulkAction) (BulkResult, error) {
	if !auth.RoleHasPermission(viewer.Role, auth.PermTimeOffManage) {
		return BulkResult{}, ErrPermissionDenied
	}
	target, ok := action.TargetStatus()
	if !ok {
		verr := &ValidationError{}
		verr.Add("action")
		return BulkResult{}, verr
	}

	admin := auth.RoleHasPermission(viewer.Role, auth.PermTimeOffAdmin)
	var team map[string]bool
	if !admin {
		var err error
		team, err = s.Users.DirectReports(ctx, viewer.UserID)
		if err != nil {
			return BulkResult{}, err
		}
	}

	snap, err := s.Settings.Snapshot(ctx)
	if err != nil {
		return BulkResult{}, err
	}
	ledger := NewLedger(YearContext{Current: snap.CurrentYear, Previous: snap.PreviousYear})

	result := BulkResult{}
	now := time.Now().UTC()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		store := s.Store.WithTx(tx)
		users := s.Users.WithTx(tx)

		for start := 0; start < len(ids); start += s.ChunkSize {
			end := start + s.ChunkSize
			if end > len(ids) {
				end = len(ids)
			}
			chunk := ids[start:end]

			batch, err := store.ListByIDs(ctx, chunk)
			if err != nil {
				return err
			}

			// Skip records already in the target status so repeated
			// patches stay idempotent. Managers only reach their own
			// reports.
			pending := batch[:0]
			for _, a := range batch {
				if a.Status == target {
					continue
				}
				if !admin && !team[a.UserID] && a.UserID != viewer.UserID {
					continue
				}
				pending = append(pending, a)
			}
			if len(pending) == 0 {
				continue
			}

			if action.RefundsOnBulk() {
				for userID, delta := range ledger.AggregateRefunds(pending) {
					current, prev, version, err := users.Balance(ctx, userID)
					if err != nil {
						return err
					}
					next := Balance{CurrentYear: current, PrevYear: prev}.Add(delta)
					if err := users.UpdateBalance(ctx, userID, next.CurrentYear, next.PrevYear, version); err != nil {
						return err
					}
					s.countBalanceWrite()
				}
			}

			chunkIDs := make([]string, 0, len(pending))
			for _, a := range pending {
				chunkIDs = append(chunkIDs, a.ID)
			}
			if err := store.BulkUpdateStatus(ctx, chunkIDs, target, viewer.UserID, now); err != nil {
				return err
			}
			result.Updated += len(chunkIDs)
		}
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}
	return result, nil
}

// Get applies the read guard: owner, line manager, or reader with the admin
// permission.
func (s *Service) Get(ctx context.Context, viewer auth.UserContext, id string) (Absence, error) {
	a, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return Absence{}, err
	}
	actor, err := s.actorFor(ctx, viewer, a.UserID)
	if err != nil {
		return Absence{}, err
	}
	if !actor.CanMutate(a.UserID) && a.ApproverID != viewer.UserID {
		return Absence{}, ErrPermissionDenied
	}
	return a, nil
}

type ListResult struct {
	Absences []Absence `json:"absences"`
	Total    int       `json:"total"`
}

func (s *Service) List(ctx context.Context, viewer auth.UserContext, filter ListFilter, limit, offset int) (ListResult, error) {
	if viewer.Role == auth.RoleEmployee {
		filter.UserID = viewer.UserID
	}
	absences, total, err := s.Store.List(ctx, filter, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	if viewer.Role == auth.RoleManager && filter.UserID == "" {
		team, err := s.Users.DirectReports(ctx, viewer.UserID)
		if err != nil {
			return ListResult{}, err
		}
		visible := absences[:0]
		for _, a := range absences {
			if a.UserID == viewer.UserID || team[a.UserID] {
				visible = append(visible, a)
			}
		}
		absences = visible
		total = len(visible)
	}
	return ListResult{Absences: absences, Total: total}, nil
}

// UserBalance reads the viewer's (or, for privileged callers, any user's)
// vacation-day buckets.
func (s *Service) UserBalance(ctx context.Context, viewer auth.UserContext, userID string) (Balance, error) {
	if userID == "" {
		userID = viewer.UserID
	}
	if userID != viewer.UserID {
		actor, err := s.actorFor(ctx, viewer, userID)
		if err != nil {
			return Balance{}, err
		}
		if !actor.Admin && !actor.ManagerOfOwner {
			return Balance{}, ErrPermissionDenied
		}
	}
	current, prev, _, err := s.Users.Balance(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return Balance{}, ErrNotFound
		}
		return Balance{}, err
	}
	return Balance{CurrentYear: current, PrevYear: prev}, nil
}

// MarkCompleted is the nightly completion pass: APPROVED absences whose end
// date has passed become DONE.
func (s *Service) MarkCompleted(ctx context.Context, now time.Time) (int64, error) {
	return s.Store.MarkCompleted(ctx, truncateDay(now))
}

func (s *Service) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.Begin.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.Warn("absence tx rollback failed", "err", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) countBalanceWrite() {
	if s.Metrics != nil {
		s.Metrics.BalanceWrites.Inc()
	}
}

func (s *Service) countInsufficient(err error) {
	if s.Metrics != nil && errors.Is(err, ErrInsufficientVacationDays) {
		s.Metrics.InsufficientBalance.Inc()
	}
}
