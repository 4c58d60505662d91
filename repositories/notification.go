package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"linkgraph/domain"
	"linkgraph/errors"
)

type INotificationRepository interface {
	Store(n domain.Notification) error
	Get(id uuid.UUID) (domain.Notification, error)
	List(receiver domain.Actor, limit int) ([]domain.Notification, error)
	MarkRead(id uuid.UUID, acting domain.Actor) error
	MarkAllRead(receiver domain.Actor) error
	MarkCompleted(id uuid.UUID, relatedID string) error
	DeleteExpired(now time.Time) (int, error)
}

// NotificationRepository persists notifications in BadgerDB.
// Keys:
//
//	notif:{receiverKey}:{ts19}:{id}   the record itself (JSON)
//	idx:notif:{id}                    id -> full primary key
//	exp:{expTs19}:{id}                expiry index scanned by the reaper
//
// The 19-digit zero-padded nanosecond timestamp keeps prefix scans in
// chronological order; the reaper walks exp: up to "now" and deletes
// all three keys per expired record.
type NotificationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewNotificationRepository(db *badger.DB, log *slog.Logger) NotificationRepository {
	return NotificationRepository{db: db, log: log}
}

func notifKey(receiver domain.Actor, createdAt time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("notif:%s:%019d:%s", receiver.Key(), createdAt.UnixNano(), id))
}

func notifIdxKey(id uuid.UUID) []byte {
	return []byte("idx:notif:" + id.String())
}

func expKey(expiresAt time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("exp:%019d:%s", expiresAt.UnixNano(), id))
}

func (r NotificationRepository) Store(n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	key := notifKey(n.Receiver, n.CreatedAt, n.ID)
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		if err := txn.Set(notifIdxKey(n.ID), key); err != nil {
			return err
		}
		return txn.Set(expKey(n.ExpiresAt, n.ID), key)
	})
}

func (r NotificationRepository) Get(id uuid.UUID) (domain.Notification, error) {
	var n domain.Notification
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := resolveNotifKey(txn, id)
		if err != nil {
			return err
		}
		return readJSON(txn, key, &n)
	})
	if err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

// List returns the most recent non-expired notifications, newest first.
func (r NotificationRepository) List(receiver domain.Actor, limit int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	now := time.Now().UTC()
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("notif:" + receiver.Key() + ":")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(notifications) == limit {
				break
			}
			var n domain.Notification
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			})
			if err != nil {
				return err
			}
			if n.Expired(now) {
				continue
			}
			notifications = append(notifications, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r NotificationRepository) MarkRead(id uuid.UUID, acting domain.Actor) error {
	return r.mutate(id, func(n *domain.Notification) error {
		if n.Receiver != acting {
			return errors.ErrForbidden
		}
		n.IsRead = true
		return nil
	})
}

// MarkAllRead flips every unread notification of the receiver. Calling
// it twice leaves identical observable state.
func (r NotificationRepository) MarkAllRead(receiver domain.Actor) error {
	return r.db.Update(func(txn *badger.Txn) error {
		prefix := []byte("notif:" + receiver.Key() + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var n domain.Notification
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			}); err != nil {
				return err
			}
			if n.IsRead {
				continue
			}
			n.IsRead = true
			data, err := json.Marshal(n)
			if err != nil {
				return err
			}
			if err := txn.Set(item.KeyCopy(nil), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkCompleted resolves the related action. The record stays until the
// reaper deletes it at TTL.
func (r NotificationRepository) MarkCompleted(id uuid.UUID, relatedID string) error {
	return r.mutate(id, func(n *domain.Notification) error {
		if n.RelatedID != relatedID {
			return fmt.Errorf("%w: related id mismatch", errors.ErrValidation)
		}
		n.Status = domain.NotificationCompleted
		n.IsRead = true
		return nil
	})
}

// DeleteExpired removes every record past its expiry. Safe to run
// concurrently: deletion by expired id is idempotent and the sweep
// never touches in-use fields.
func (r NotificationRepository) DeleteExpired(now time.Time) (int, error) {
	type target struct{ exp, primary, idx []byte }
	var targets []target

	// ';' sorts just after ':' so records expiring exactly at now are
	// still below the bound.
	bound := fmt.Sprintf("exp:%019d;", now.UnixNano())
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("exp:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if key > bound {
				break
			}
			primary, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			idStr := key[len("exp:")+19+1:]
			targets = append(targets, target{
				exp:     item.KeyCopy(nil),
				primary: primary,
				idx:     []byte("idx:notif:" + idStr),
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, t := range targets {
		err := r.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete(t.primary); err != nil {
				return err
			}
			if err := txn.Delete(t.idx); err != nil {
				return err
			}
			return txn.Delete(t.exp)
		})
		if err != nil {
			r.log.Warn("Failed to delete expired notification", "key", string(t.primary), "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

func (r NotificationRepository) mutate(id uuid.UUID, fn func(*domain.Notification) error) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, err := resolveNotifKey(txn, id)
		if err != nil {
			return err
		}
		var n domain.Notification
		if err := readJSON(txn, key, &n); err != nil {
			return err
		}
		if err := fn(&n); err != nil {
			return err
		}
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

func resolveNotifKey(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(notifIdxKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: notification %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
