package repository

import (
	"context"

	"github.com/akinalp/swipecall/models"
)

// CallRecordRepository, arama geçmişi için interface.
// Yazım best-effort'tur: CallService kayıt hatasını loglar, teardown'ı
// asla bloklamaz.
type CallRecordRepository interface {
	Create(ctx context.Context, record *models.CallRecord) error
	GetByID(ctx context.Context, id string) (*models.CallRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*models.CallRecord, error)
	ListByPeer(ctx context.Context, peerID string, limit int) ([]*models.CallRecord, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}
