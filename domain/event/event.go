package event

import (
	"fmt"
	"time"

	"linkgraph/domain"
)

// DomainEvent is anything the dispatcher can turn into a durable
// notification and an optional live push.
type DomainEvent interface {
	Kind() string
	Sender() domain.Actor
	Receiver() domain.Actor
	// RelatedID points at the resource the notification is about
	// (connection id, message id, job id...).
	RelatedID() string
	// Describe renders the stable user-visible notification text.
	Describe() string
	At() time.Time
}

const (
	KindConnectionRequested = "connection_requested"
	KindConnectionAccepted  = "connection_accepted"
	KindConnectionRejected  = "connection_rejected"
	KindMessageSent         = "message_sent"
	KindJobApplication      = "job_application"
	KindApplicationStatus   = "application_status"
	KindVoteCount           = "vote_count"
)

type ConnectionRequested struct {
	Connection domain.Connection
}

func (e ConnectionRequested) Kind() string           { return KindConnectionRequested }
func (e ConnectionRequested) Sender() domain.Actor   { return e.Connection.Requester }
func (e ConnectionRequested) Receiver() domain.Actor { return e.Connection.Receiver }
func (e ConnectionRequested) RelatedID() string      { return e.Connection.ID.String() }
func (e ConnectionRequested) At() time.Time          { return e.Connection.CreatedAt }
func (e ConnectionRequested) Describe() string {
	return fmt.Sprintf("%s sent you a connection request", e.Connection.Requester.ID)
}

type ConnectionAccepted struct {
	Connection domain.Connection
}

func (e ConnectionAccepted) Kind() string         { return KindConnectionAccepted }
func (e ConnectionAccepted) Sender() domain.Actor { return e.Connection.Receiver }

// Receiver the requester is the one to notify once their request is resolved.
func (e ConnectionAccepted) Receiver() domain.Actor { return e.Connection.Requester }
func (e ConnectionAccepted) RelatedID() string      { return e.Connection.ID.String() }
func (e ConnectionAccepted) At() time.Time          { return e.Connection.UpdatedAt }
func (e ConnectionAccepted) Describe() string {
	return fmt.Sprintf("%s accepted your connection request", e.Connection.Receiver.ID)
}

type ConnectionRejected struct {
	Connection domain.Connection
}

func (e ConnectionRejected) Kind() string           { return KindConnectionRejected }
func (e ConnectionRejected) Sender() domain.Actor   { return e.Connection.Receiver }
func (e ConnectionRejected) Receiver() domain.Actor { return e.Connection.Requester }
func (e ConnectionRejected) RelatedID() string      { return e.Connection.ID.String() }
func (e ConnectionRejected) At() time.Time          { return e.Connection.UpdatedAt }
func (e ConnectionRejected) Describe() string {
	return fmt.Sprintf("%s declined your connection request", e.Connection.Receiver.ID)
}

type MessageSent struct {
	Message domain.Message
}

func (e MessageSent) Kind() string           { return KindMessageSent }
func (e MessageSent) Sender() domain.Actor   { return e.Message.Sender }
func (e MessageSent) Receiver() domain.Actor { return e.Message.Receiver }
func (e MessageSent) RelatedID() string      { return e.Message.ID.String() }
func (e MessageSent) At() time.Time          { return e.Message.CreatedAt }
func (e MessageSent) Describe() string {
	return fmt.Sprintf("New message from %s", e.Message.Sender.ID)
}

// JobApplicationSubmitted enters through the dispatcher only: job
// postings themselves are managed by an external collaborator.
type JobApplicationSubmitted struct {
	Applicant domain.Actor
	Poster    domain.Actor
	JobID     string
	When      time.Time
}

func (e JobApplicationSubmitted) Kind() string           { return KindJobApplication }
func (e JobApplicationSubmitted) Sender() domain.Actor   { return e.Applicant }
func (e JobApplicationSubmitted) Receiver() domain.Actor { return e.Poster }
func (e JobApplicationSubmitted) RelatedID() string      { return e.JobID }
func (e JobApplicationSubmitted) At() time.Time          { return e.When }
func (e JobApplicationSubmitted) Describe() string {
	return fmt.Sprintf("%s applied to your job posting", e.Applicant.ID)
}

type ApplicationStatusChanged struct {
	Poster    domain.Actor
	Applicant domain.Actor
	JobID     string
	Status    string
	When      time.Time
}

func (e ApplicationStatusChanged) Kind() string           { return KindApplicationStatus }
func (e ApplicationStatusChanged) Sender() domain.Actor   { return e.Poster }
func (e ApplicationStatusChanged) Receiver() domain.Actor { return e.Applicant }
func (e ApplicationStatusChanged) RelatedID() string      { return e.JobID }
func (e ApplicationStatusChanged) At() time.Time          { return e.When }
func (e ApplicationStatusChanged) Describe() string {
	return fmt.Sprintf("Your application status changed to %s", e.Status)
}

type VoteCountChanged struct {
	Voter  domain.Actor
	Owner  domain.Actor
	PostID string
	Total  int
	When   time.Time
}

func (e VoteCountChanged) Kind() string           { return KindVoteCount }
func (e VoteCountChanged) Sender() domain.Actor   { return e.Voter }
func (e VoteCountChanged) Receiver() domain.Actor { return e.Owner }
func (e VoteCountChanged) RelatedID() string      { return e.PostID }
func (e VoteCountChanged) At() time.Time          { return e.When }
func (e VoteCountChanged) Describe() string {
	return fmt.Sprintf("Your post reached %d votes", e.Total)
}
