package loginattempts

import (
	"context"
	"time"

	"github.com/corpopadel/padel-auth/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, kind models.AttemptKind, key string) (*models.LoginAttempt, error)
	GetForUpdate(ctx context.Context, kind models.AttemptKind, key string, now time.Time) (*models.LoginAttempt, error)
	Save(ctx context.Context, attempt *models.LoginAttempt) error
	Reset(ctx context.Context, kind models.AttemptKind, key string) error
}
