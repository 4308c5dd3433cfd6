package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
)

// translate maps storage-layer failures onto the error taxonomy the services
// branch on. Requires the postgres dialector's error translation to be on so
// unique violations surface as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return chaterr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return chaterr.ErrConflict
	default:
		return err
	}
}
