package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"linkgraph/domain"
	"linkgraph/errors"
)

type IMessageRepository interface {
	Store(m domain.Message) error
	Get(id uuid.UUID) (domain.Message, error)
	ListByConversation(conversationID string) ([]domain.Message, error)
	ListConversations(actor domain.Actor) ([]domain.Conversation, error)
	MarkRead(id uuid.UUID, acting domain.Actor) error
	Delete(id uuid.UUID, acting domain.Actor) error
}

// MessageRepository persists conversation messages in BadgerDB.
// Keys:
//
//	msg:{conversationId}:{ts19}:{id}   the record itself (JSON)
//	idx:msg:{id}                       id -> full primary key
//	conv:{actorKey}:{conversationId}   peer actor key, one per participant
//
// The key is formatted with a 19-digit zero-padded nanosecond timestamp to:
//  1. Ensure chronological sorting (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

func msgKey(conversationID string, createdAt time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", conversationID, createdAt.UnixNano(), id))
}

func msgIdxKey(id uuid.UUID) []byte {
	return []byte("idx:msg:" + id.String())
}

func convKey(actor domain.Actor, conversationID string) []byte {
	return []byte("conv:" + actor.Key() + ":" + conversationID)
}

func (r MessageRepository) Store(m domain.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	key := msgKey(m.ConversationID, m.CreatedAt, m.ID)
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		if err := txn.Set(msgIdxKey(m.ID), key); err != nil {
			return err
		}
		if err := txn.Set(convKey(m.Sender, m.ConversationID), []byte(m.Receiver.Key())); err != nil {
			return err
		}
		return txn.Set(convKey(m.Receiver, m.ConversationID), []byte(m.Sender.Key()))
	})
}

func (r MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var m domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := resolveMsgKey(txn, id)
		if err != nil {
			return err
		}
		return readJSON(txn, key, &m)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return m, nil
}

// ListByConversation returns every message of the conversation ordered
// by creation time ascending. The padded timestamp in the key makes the
// prefix scan naturally sorted.
func (r MessageRepository) ListByConversation(conversationID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:" + conversationID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m domain.Message
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ListConversations groups the actor's conversations with their last
// message and unread count, most recent conversation first.
func (r MessageRepository) ListConversations(actor domain.Actor) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("conv:" + actor.Key() + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			conversationID := string(item.Key()[len(prefix):])
			peerKey, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			peer, err := domain.ParseActorKey(string(peerKey))
			if err != nil {
				return fmt.Errorf("corrupt conversation index: %w", err)
			}
			summary, ok, err := summarize(txn, conversationID, actor)
			if err != nil {
				return err
			}
			if !ok {
				// All messages of this conversation were deleted.
				continue
			}
			summary.Peer = peer
			conversations = append(conversations, summary)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt.After(conversations[j].LastMessage.CreatedAt)
	})
	return conversations, nil
}

func (r MessageRepository) MarkRead(id uuid.UUID, acting domain.Actor) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, err := resolveMsgKey(txn, id)
		if err != nil {
			return err
		}
		var m domain.Message
		if err := readJSON(txn, key, &m); err != nil {
			return err
		}
		if m.Receiver != acting {
			return errors.ErrForbidden
		}
		m.IsRead = true
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// Delete removes a message. Only the sender may delete.
func (r MessageRepository) Delete(id uuid.UUID, acting domain.Actor) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, err := resolveMsgKey(txn, id)
		if err != nil {
			return err
		}
		var m domain.Message
		if err := readJSON(txn, key, &m); err != nil {
			return err
		}
		if m.Sender != acting {
			return errors.ErrForbidden
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(msgIdxKey(id))
	})
}

// summarize walks one conversation backwards for the last message and
// forwards for the unread count of the given participant.
func summarize(txn *badger.Txn, conversationID string, actor domain.Actor) (domain.Conversation, bool, error) {
	summary := domain.Conversation{ID: conversationID}
	prefix := []byte("msg:" + conversationID + ":")

	options := badger.DefaultIteratorOptions
	options.Reverse = true
	rit := txn.NewIterator(options)
	seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
	rit.Seek(seekKey)
	if !rit.ValidForPrefix(prefix) {
		rit.Close()
		return domain.Conversation{}, false, nil
	}
	err := rit.Item().Value(func(val []byte) error {
		return json.Unmarshal(val, &summary.LastMessage)
	})
	rit.Close()
	if err != nil {
		return domain.Conversation{}, false, err
	}

	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var m domain.Message
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		}); err != nil {
			return domain.Conversation{}, false, err
		}
		if m.Receiver == actor && !m.IsRead {
			summary.UnreadCount++
		}
	}
	return summary, true, nil
}

func resolveMsgKey(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(msgIdxKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: message %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
