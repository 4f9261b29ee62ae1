package lifecycle

import (
	"errors"
	"strings"

	"github.com/echallan/backend/models"
	"gorm.io/gorm"
)

// GormStore implements Store on a GORM connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a GORM connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetCamera(id uint) (*models.Camera, error) {
	var cam models.Camera
	if err := s.db.First(&cam, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cam, nil
}

func (s *GormStore) UpdateCamera(cam *models.Camera) error {
	return s.db.Save(cam).Error
}

func (s *GormStore) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) ListDeviceTokens() ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	if err := s.db.Order("id").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *GormStore) CreateChallan(c *models.Challan) error {
	return s.db.Create(c).Error
}

func (s *GormStore) GetChallan(id uint) (*models.Challan, error) {
	var challan models.Challan
	if err := s.db.First(&challan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &challan, nil
}

func (s *GormStore) UpdateChallan(c *models.Challan) error {
	return s.db.Save(c).Error
}

func (s *GormStore) CreatePayment(p *models.Payment) error {
	return s.db.Create(p).Error
}

func (s *GormStore) GetPayment(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (s *GormStore) UpdatePayment(p *models.Payment) error {
	return s.db.Save(p).Error
}

func (s *GormStore) CompletedPaymentForChallan(challanID uint) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Where("challan_id = ? AND status = ?", challanID, models.PaymentCompleted).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (s *GormStore) CreateAppeal(a *models.Appeal) error {
	if err := s.db.Create(a).Error; err != nil {
		// The unique index on challan_id backs the duplicate-appeal check
		// under concurrent requests.
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return ErrStoreConflict
		}
		return err
	}
	return nil
}

func (s *GormStore) GetAppeal(id uint) (*models.Appeal, error) {
	var appeal models.Appeal
	if err := s.db.First(&appeal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appeal, nil
}

func (s *GormStore) UpdateAppeal(a *models.Appeal) error {
	return s.db.Save(a).Error
}

func (s *GormStore) AppealForChallan(challanID uint) (*models.Appeal, error) {
	var appeal models.Appeal
	err := s.db.Where("challan_id = ?", challanID).First(&appeal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appeal, nil
}

// Atomically runs fn inside one database transaction.
func (s *GormStore) Atomically(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
