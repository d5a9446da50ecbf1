package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/upliftai/uplift/pkg/models"
)

var _ models.UserStore = &UserStoreDAO{}

type UserStoreDAO struct {
	db *bun.DB
}

func NewUserStoreDAO(db *bun.DB) *UserStoreDAO {
	return &UserStoreDAO{
		db: db,
	}
}

// Create creates a new user. The caller is responsible for hashing the password.
func (dao *UserStoreDAO) Create(
	ctx context.Context,
	user *models.CreateUserRequest,
) (*models.User, error) {
	if user.Email == "" {
		return nil, models.NewBadRequestError("email cannot be empty")
	}
	if user.PasswordHash == "" {
		return nil, models.NewBadRequestError("password hash cannot be empty")
	}
	userDB := &UserSchema{
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PasswordHash: user.PasswordHash,
	}
	_, err := dao.db.NewInsert().Model(userDB).Returning("*").Exec(ctx)
	if err != nil {
		if err, ok := err.(pgdriver.Error); ok && err.IntegrityViolation() {
			return nil, models.NewBadRequestError(
				"user already exists with email: " + user.Email,
			)
		}
		return nil, err
	}

	return userSchemaToUser(userDB)
}

// GetByUUID gets a user by UUID.
func (dao *UserStoreDAO) GetByUUID(
	ctx context.Context,
	userUUID uuid.UUID,
) (*models.User, error) {
	user := new(UserSchema)
	err := dao.db.NewSelect().Model(user).Where("uuid = ?", userUUID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("user " + userUUID.String())
		}
		return nil, err
	}
	return userSchemaToUser(user)
}

// GetByEmail gets a user by email. The lookup is case-insensitive.
func (dao *UserStoreDAO) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := new(UserSchema)
	err := dao.db.NewSelect().Model(user).Where("LOWER(email) = LOWER(?)", email).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("user " + email)
		}
		return nil, err
	}
	return userSchemaToUser(user)
}

// Update updates a user's profile fields. Zero-value fields in the request
// retain their current values.
func (dao *UserStoreDAO) Update(
	ctx context.Context,
	user *models.UpdateUserRequest,
) (*models.User, error) {
	if user.UUID == uuid.Nil {
		return nil, models.NewBadRequestError("user UUID cannot be empty")
	}

	// Acquire a lock for this user. This is to prevent concurrent updates
	// to the same profile row.
	lockRetryPolicy := retrypolicy.Builder[any]().
		HandleErrors(models.ErrLockAcquisitionFailed).
		WithBackoff(200*time.Millisecond, 10*time.Second).
		WithMaxRetries(7).
		Build()

	lockIDVal, err := failsafe.Get(func() (any, error) {
		return tryAcquireAdvisoryLock(ctx, dao.db, user.UUID.String())
	}, lockRetryPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	lockID, ok := lockIDVal.(uint64)
	if !ok {
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", models.ErrLockAcquisitionFailed)
	}

	defer func(ctx context.Context, db bun.IDB, lockID uint64) {
		err := releaseAdvisoryLock(ctx, db, lockID)
		if err != nil {
			log.Errorf("failed to release advisory lock: %v", err)
		}
	}(ctx, dao.db, lockID)

	current := new(UserSchema)
	err = dao.db.NewSelect().Model(current).Where("uuid = ?", user.UUID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("user " + user.UUID.String())
		}
		return nil, err
	}

	// fill unset request fields from the current row so the update is a full write
	userDB := UserSchema{
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if err := mergo.Merge(&userDB, current); err != nil {
		return nil, fmt.Errorf("failed to merge user fields: %w", err)
	}

	_, err = dao.db.NewUpdate().
		Model(&userDB).
		Column("first_name", "last_name", "updated_at").
		Where("uuid = ?", user.UUID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return dao.GetByUUID(ctx, user.UUID)
}

// UpdatePassword replaces the user's password hash.
func (dao *UserStoreDAO) UpdatePassword(
	ctx context.Context,
	userUUID uuid.UUID,
	passwordHash string,
) error {
	if passwordHash == "" {
		return models.NewBadRequestError("password hash cannot be empty")
	}
	userDB := UserSchema{PasswordHash: passwordHash}
	r, err := dao.db.NewUpdate().
		Model(&userDB).
		Column("password_hash", "updated_at").
		Where("uuid = ?", userUUID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(r, "user "+userUUID.String())
}

// MarkVerified flags the user's email address as verified.
func (dao *UserStoreDAO) MarkVerified(ctx context.Context, userUUID uuid.UUID) error {
	userDB := UserSchema{Verified: true}
	r, err := dao.db.NewUpdate().
		Model(&userDB).
		Column("verified", "updated_at").
		Where("uuid = ?", userUUID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(r, "user "+userUUID.String())
}

// RecordLogin stamps the user's last login time.
func (dao *UserStoreDAO) RecordLogin(ctx context.Context, userUUID uuid.UUID) error {
	now := time.Now()
	userDB := UserSchema{LastLoginAt: &now}
	r, err := dao.db.NewUpdate().
		Model(&userDB).
		Column("last_login_at", "updated_at").
		Where("uuid = ?", userUUID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(r, "user "+userUUID.String())
}

// Delete soft deletes a user and their conversations.
func (dao *UserStoreDAO) Delete(ctx context.Context, userUUID uuid.UUID) error {
	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnError(tx)

	// Soft delete the user's conversations and their messages first
	conversationDAO := NewConversationDAO(dao.db)
	conversations, err := conversationDAO.ListForUser(ctx, userUUID, 0, 0)
	if err != nil {
		return err
	}
	for _, c := range conversations {
		if err := conversationDAO.Delete(ctx, userUUID, c.UUID); err != nil {
			return err
		}
	}

	r, err := tx.NewDelete().
		Model(&UserSchema{}).
		Where("uuid = ?", userUUID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if err := requireRowsAffected(r, "user "+userUUID.String()); err != nil {
		return err
	}

	return tx.Commit()
}

// ListAll lists all users. The cursor is used to paginate results.
func (dao *UserStoreDAO) ListAll(
	ctx context.Context,
	cursor int64,
	limit int,
) ([]*models.User, error) {
	var usersDB []*UserSchema
	q := dao.db.NewSelect().
		Model(&usersDB).
		Where("id > ?", cursor).
		OrderExpr("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return usersFromSchema(usersDB)
}

// ListNew returns users who signed up after the given time, newest first.
func (dao *UserStoreDAO) ListNew(
	ctx context.Context,
	since time.Time,
) ([]*models.User, error) {
	var usersDB []*UserSchema
	err := dao.db.NewSelect().
		Model(&usersDB).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return usersFromSchema(usersDB)
}

// ListActive returns verified users ordered by most recent login.
func (dao *UserStoreDAO) ListActive(
	ctx context.Context,
	limit int,
) ([]*models.User, error) {
	var usersDB []*UserSchema
	q := dao.db.NewSelect().
		Model(&usersDB).
		Where("verified = true").
		Where("last_login_at IS NOT NULL").
		Order("last_login_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return usersFromSchema(usersDB)
}

// SaveOTP stores a one-time code, replacing any live code for the same user
// and purpose. Replaced codes are soft deleted so they still count toward
// the issuance rate limit; the purge processor removes them once they fall
// out of the rate window.
func (dao *UserStoreDAO) SaveOTP(ctx context.Context, otp *models.OTP) error {
	if otp.Code == "" {
		return models.NewBadRequestError("otp code cannot be empty")
	}

	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnError(tx)

	_, err = tx.NewDelete().
		Model(&OTPSchema{}).
		Where("user_uuid = ?", otp.UserUUID).
		Where("purpose = ?", otp.Purpose).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to retire existing otp: %w", err)
	}

	otpDB := OTPSchema{
		UserUUID:  otp.UserUUID,
		Purpose:   string(otp.Purpose),
		Code:      otp.Code,
		ExpiresAt: otp.ExpiresAt,
	}
	_, err = tx.NewInsert().Model(&otpDB).Returning("*").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create otp: %w", err)
	}

	otp.UUID = otpDB.UUID
	otp.CreatedAt = otpDB.CreatedAt

	return tx.Commit()
}

// GetOTP retrieves the live code for a user and purpose.
func (dao *UserStoreDAO) GetOTP(
	ctx context.Context,
	userUUID uuid.UUID,
	purpose models.OTPPurpose,
) (*models.OTP, error) {
	otpDB := new(OTPSchema)
	err := dao.db.NewSelect().
		Model(otpDB).
		Where("user_uuid = ?", userUUID).
		Where("purpose = ?", purpose).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("otp for user " + userUUID.String())
		}
		return nil, err
	}

	return &models.OTP{
		UUID:      otpDB.UUID,
		CreatedAt: otpDB.CreatedAt,
		UserUUID:  otpDB.UserUUID,
		Purpose:   models.OTPPurpose(otpDB.Purpose),
		Code:      otpDB.Code,
		ExpiresAt: otpDB.ExpiresAt,
	}, nil
}

// DeleteOTP retires a consumed or invalidated code. The row is soft deleted
// and still counts toward the issuance rate limit.
func (dao *UserStoreDAO) DeleteOTP(ctx context.Context, otpUUID uuid.UUID) error {
	r, err := dao.db.NewDelete().
		Model(&OTPSchema{}).
		Where("uuid = ?", otpUUID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(r, "otp "+otpUUID.String())
}

// CountOTPsSince counts codes issued to a user for a purpose after the given
// time, including retired ones. Used for request rate limiting.
func (dao *UserStoreDAO) CountOTPsSince(
	ctx context.Context,
	userUUID uuid.UUID,
	purpose models.OTPPurpose,
	since time.Time,
) (int, error) {
	return dao.db.NewSelect().
		Model((*OTPSchema)(nil)).
		WhereAllWithDeleted().
		Where("user_uuid = ?", userUUID).
		Where("purpose = ?", purpose).
		Where("created_at >= ?", since).
		Count(ctx)
}

func requireRowsAffected(r sql.Result, subject string) error {
	rowsAffected, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.NewNotFoundError(subject)
	}
	return nil
}

func userSchemaToUser(user *UserSchema) (*models.User, error) {
	retUser := &models.User{}
	if err := copier.Copy(retUser, user); err != nil {
		return nil, fmt.Errorf("failed to copy user: %w", err)
	}
	if !user.DeletedAt.IsZero() {
		deletedAt := user.DeletedAt
		retUser.DeletedAt = &deletedAt
	} else {
		retUser.DeletedAt = nil
	}
	return retUser, nil
}

func usersFromSchema(usersDB []*UserSchema) ([]*models.User, error) {
	users := make([]*models.User, len(usersDB))
	for i := range usersDB {
		user, err := userSchemaToUser(usersDB[i])
		if err != nil {
			return nil, err
		}
		users[i] = user
	}
	return users, nil
}
