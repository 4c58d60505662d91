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

type IConnectionRepository interface {
	Create(requester, receiver domain.Actor) (domain.Connection, error)
	Get(id uuid.UUID) (domain.Connection, error)
	Transition(id uuid.UUID, acting domain.Actor, to domain.ConnectionStatus) (domain.Connection, error)
	Remove(a, b domain.Actor) error
	ListByActor(actor domain.Actor) ([]domain.Connection, error)
	AcceptedBetween(a, b domain.Actor) (bool, error)
}

// ConnectionRepository persists connection records in BadgerDB.
// Keys:
//
//	conn:{id}                     the record itself (JSON)
//	pair:{pairKey}                id of the single non-rejected record for the pair
//	idx:connact:{actorKey}:{id}   per-actor listing index (both participants)
//
// The pair key is written and deleted in the same transaction as the
// record, which is what enforces the one-outstanding-record invariant.
type ConnectionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConnectionRepository(db *badger.DB, log *slog.Logger) ConnectionRepository {
	return ConnectionRepository{db: db, log: log}
}

func connKey(id uuid.UUID) []byte      { return []byte("conn:" + id.String()) }
func pairKey(a, b domain.Actor) []byte { return []byte("pair:" + domain.PairKey(a, b)) }
func connActKey(actor domain.Actor, id uuid.UUID) []byte {
	return []byte("idx:connact:" + actor.Key() + ":" + id.String())
}

func (r ConnectionRepository) Create(requester, receiver domain.Actor) (domain.Connection, error) {
	now := time.Now().UTC()
	conn := domain.Connection{
		ID:        uuid.New(),
		Requester: requester,
		Receiver:  receiver,
		Status:    domain.ConnectionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.Marshal(conn)
	if err != nil {
		return domain.Connection{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		pk := pairKey(requester, receiver)
		if _, err := txn.Get(pk); err == nil {
			return errors.ErrDuplicateConnection
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(connKey(conn.ID), data); err != nil {
			return err
		}
		if err := txn.Set(pk, []byte(conn.ID.String())); err != nil {
			return err
		}
		if err := txn.Set(connActKey(requester, conn.ID), nil); err != nil {
			return err
		}
		return txn.Set(connActKey(receiver, conn.ID), nil)
	})
	if err != nil {
		return domain.Connection{}, err
	}
	return conn, nil
}

func (r ConnectionRepository) Get(id uuid.UUID) (domain.Connection, error) {
	var conn domain.Connection
	err := r.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, connKey(id), &conn)
	})
	if err != nil {
		return domain.Connection{}, err
	}
	return conn, nil
}

// Transition applies pending->accepted or pending->rejected atomically.
// The status guard runs inside the write transaction; a racing writer on
// the same id makes the commit conflict, which resolves to
// ErrInvalidTransition for the loser.
func (r ConnectionRepository) Transition(id uuid.UUID, acting domain.Actor, to domain.ConnectionStatus) (domain.Connection, error) {
	var conn domain.Connection
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := readJSON(txn, connKey(id), &conn); err != nil {
			return err
		}
		if conn.Receiver != acting {
			return errors.ErrForbidden
		}
		if !conn.CanTransition(to) {
			return errors.ErrInvalidTransition
		}
		conn.Status = to
		conn.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(conn)
		if err != nil {
			return err
		}
		if err := txn.Set(connKey(id), data); err != nil {
			return err
		}
		if to == domain.ConnectionRejected {
			// Releasing the pair key is what allows a later re-request.
			return txn.Delete(pairKey(conn.Requester, conn.Receiver))
		}
		return nil
	})
	if err == badger.ErrConflict {
		r.log.Debug("Transition lost commit race", "connection_id", id)
		return domain.Connection{}, errors.ErrInvalidTransition
	}
	if err != nil {
		return domain.Connection{}, err
	}
	return conn, nil
}

// Remove deletes an accepted record for the pair. An absent or
// non-accepted record is a successful no-op.
func (r ConnectionRepository) Remove(a, b domain.Actor) error {
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(a, b))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var idStr string
		if err := item.Value(func(val []byte) error {
			idStr = string(val)
			return nil
		}); err != nil {
			return err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return fmt.Errorf("corrupt pair index: %w", err)
		}
		var conn domain.Connection
		if err := readJSON(txn, connKey(id), &conn); err != nil {
			return err
		}
		if conn.Status != domain.ConnectionAccepted {
			return nil
		}
		if err := txn.Delete(connKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(pairKey(a, b)); err != nil {
			return err
		}
		if err := txn.Delete(connActKey(conn.Requester, id)); err != nil {
			return err
		}
		return txn.Delete(connActKey(conn.Receiver, id))
	})
}

func (r ConnectionRepository) ListByActor(actor domain.Actor) ([]domain.Connection, error) {
	var conns []domain.Connection
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("idx:connact:" + actor.Key() + ":")
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			idStr := string(it.Item().Key()[len(prefix):])
			id, err := uuid.Parse(idStr)
			if err != nil {
				return fmt.Errorf("corrupt actor index: %w", err)
			}
			var conn domain.Connection
			if err := readJSON(txn, connKey(id), &conn); err != nil {
				return err
			}
			conns = append(conns, conn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conns, nil
}

// AcceptedBetween answers the messaging authorization question: does an
// accepted connection exist for the pair right now.
func (r ConnectionRepository) AcceptedBetween(a, b domain.Actor) (bool, error) {
	accepted := false
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(a, b))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var idStr string
		if err := item.Value(func(val []byte) error {
			idStr = string(val)
			return nil
		}); err != nil {
			return err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return fmt.Errorf("corrupt pair index: %w", err)
		}
		var conn domain.Connection
		if err := readJSON(txn, connKey(id), &conn); err != nil {
			return err
		}
		accepted = conn.Status == domain.ConnectionAccepted
		return nil
	})
	return accepted, err
}

// readJSON loads and unmarshals one key, mapping a missing key to the
// domain NotFound error.
func readJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, key)
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}
