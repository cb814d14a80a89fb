package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/hushnetwork-social/hush-node/pkg/bank"
	"github.com/hushnetwork-social/hush-node/pkg/chaincache"
	"github.com/hushnetwork-social/hush-node/pkg/eventbus"
	"github.com/hushnetwork-social/hush-node/pkg/feeds"
	"github.com/hushnetwork-social/hush-node/pkg/idempotency"
	"github.com/hushnetwork-social/hush-node/pkg/identity"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/membership"
	"github.com/hushnetwork-social/hush-node/pkg/mempool"
	"github.com/hushnetwork-social/hush-node/pkg/merkle"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
	"github.com/hushnetwork-social/hush-node/pkg/registry"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

const (
	feedIdByteLength     = 16
	messageIdByteLength  = 16
	nullifierByteLength  = 32
	commitmentByteLength = 32
)

// errInvalidArgument is returned by the wire-length checks spec.md §6
// mandates at the RPC boundary.
var errInvalidArgument = errors.New("invalid argument")

// Server implements HushBlockchain/HushBank/HushIdentity/HushFeeds/
// HushReactions/HushMembership and exposes them as JSON POST endpoints
// under /rpc/<Service>/<Method>. It is a reference binding only: the
// interfaces in contract.go are the real contract.
type Server struct {
	reg         *registry.Registry
	gate        *idempotency.Gate
	pool        *mempool.Pool
	bus         *eventbus.Bus
	cache       *chaincache.Cache
	persist     *persistence.Client
	members     *membership.Service
	logger      *log.Logger
}

// New constructs a Server.
func New(reg *registry.Registry, gate *idempotency.Gate, pool *mempool.Pool, bus *eventbus.Bus, cache *chaincache.Cache, persist *persistence.Client, members *membership.Service) *Server {
	return &Server{
		reg:     reg,
		gate:    gate,
		pool:    pool,
		bus:     bus,
		cache:   cache,
		persist: persist,
		members: members,
		logger:  log.New(log.Writer(), "[RPC] ", log.LstdFlags),
	}
}

// ServeHTTP routes POST /rpc/<Service>/<Method> requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	handler, ok := s.routes()[r.URL.Path]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	handler(w, r)
}

func (s *Server) routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/rpc/HushBlockchain/GetBlockchainHeight":     s.handleGetBlockchainHeight,
		"/rpc/HushBlockchain/SubmitSignedTransaction": s.handleSubmitSignedTransaction,
		"/rpc/HushBank/GetAddressBalance":             s.handleGetAddressBalance,
		"/rpc/HushIdentity/GetIdentity":               s.handleGetIdentity,
		"/rpc/HushIdentity/SearchByDisplayName":       s.handleSearchByDisplayName,
		"/rpc/HushFeeds/GetPersonalFeed":              s.handleGetPersonalFeed,
		"/rpc/HushReactions/GetReactionTallies":       s.handleGetReactionTallies,
		"/rpc/HushReactions/NullifierExists":          s.handleNullifierExists,
		"/rpc/HushReactions/GetReactionBackup":        s.handleGetReactionBackup,
		"/rpc/HushMembership/GetMembershipProof":      s.handleGetMembershipProof,
		"/rpc/HushMembership/GetRecentMerkleRoots":    s.handleGetRecentMerkleRoots,
		"/rpc/HushMembership/RegisterCommitment":      s.handleRegisterCommitment,
		"/rpc/HushMembership/IsCommitmentRegistered":  s.handleIsCommitmentRegistered,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeInvalidArgument(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "InvalidArgument", "message": err.Error()})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal", "message": err.Error()})
}

// decodeFeedId applies spec.md §6's wire-length validation (exactly 16 bytes).
func decodeFeedId(s string) (ids.FeedId, error) {
	feedID, err := ids.ParseFeedId(s)
	if err != nil {
		return ids.FeedId{}, fmt.Errorf("%w: %s", errInvalidArgument, err)
	}
	if b := feedID.Bytes(); len(b) != feedIdByteLength {
		return ids.FeedId{}, fmt.Errorf("%w: feedId must be %d bytes", errInvalidArgument, feedIdByteLength)
	}
	return feedID, nil
}

func decodeMessageId(s string) (ids.FeedMessageId, error) {
	messageID, err := ids.ParseFeedMessageId(s)
	if err != nil {
		return ids.FeedMessageId{}, fmt.Errorf("%w: %s", errInvalidArgument, err)
	}
	if b := messageID.Bytes(); len(b) != messageIdByteLength {
		return ids.FeedMessageId{}, fmt.Errorf("%w: messageId must be %d bytes", errInvalidArgument, messageIdByteLength)
	}
	return messageID, nil
}

func validateNullifier(n []byte) error {
	if len(n) != nullifierByteLength {
		return fmt.Errorf("%w: nullifier must be %d bytes", errInvalidArgument, nullifierByteLength)
	}
	return nil
}

func validateCommitment(c []byte) error {
	if len(c) != commitmentByteLength {
		return fmt.Errorf("%w: commitment must be %d bytes", errInvalidArgument, commitmentByteLength)
	}
	return nil
}

// --- HushBlockchain ---

func (s *Server) handleGetBlockchainHeight(w http.ResponseWriter, r *http.Request) {
	height, err := s.GetBlockchainHeight(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"index": height})
}

// GetBlockchainHeight implements HushBlockchain.
func (s *Server) GetBlockchainHeight(ctx context.Context) (int64, error) {
	return int64(s.cache.Read().LastBlockIndex), nil
}

func (s *Server) handleSubmitSignedTransaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Transaction json.RawMessage `json:"transaction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	result, err := s.SubmitSignedTransaction(r.Context(), body.Transaction)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SubmitSignedTransaction implements HushBlockchain, routing a raw signed
// transaction through §4.7 (content validation), §4.6 (idempotency), then
// §4.5 (mempool admission).
func (s *Server) SubmitSignedTransaction(ctx context.Context, raw []byte) (SubmitResult, error) {
	signed, err := s.reg.DecodeSigned(raw)
	if err != nil {
		return SubmitResult{Status: Rejected, Message: err.Error()}, nil
	}

	entry, err := s.reg.Lookup(signed.Unsigned.PayloadKind)
	if err != nil {
		return SubmitResult{Status: Rejected, Message: err.Error()}, nil
	}

	validated, err := entry.Validator.ValidateAndSign(ctx, signed)
	if err != nil {
		return SubmitResult{Status: Rejected, Message: err.Error()}, nil
	}

	if messagePayload, ok := validated.ExtractUnsigned().Payload.(txkind.NewFeedMessagePayload); ok {
		messageID, err := ids.ParseFeedMessageId(messagePayload.FeedMessageId)
		if err != nil {
			return SubmitResult{Status: Rejected, Message: err.Error()}, nil
		}

		outcome := s.gate.Check(ctx, messageID)
		if outcome != idempotency.Accepted {
			return SubmitResult{Status: SubmitStatus(outcome)}, nil
		}
		if !s.gate.TryTrack(messageID) {
			return SubmitResult{Status: Pending}, nil
		}
	}

	s.pool.Add(validated)
	s.bus.PublishTransactionReceived(eventbus.TransactionReceived{TransactionId: validated.Unsigned.TransactionId})

	return SubmitResult{Status: Accepted}, nil
}

// --- HushBank ---

func (s *Server) handleGetAddressBalance(w http.ResponseWriter, r *http.Request) {
	var req struct{ Address, Token string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	balance, err := s.GetAddressBalance(r.Context(), req.Address, req.Token)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance})
}

// GetAddressBalance implements HushBank.
func (s *Server) GetAddressBalance(ctx context.Context, address, token string) (string, error) {
	uow := s.persist.CreateReadOnly(ctx)
	repo := bank.NewRepository(uow.Querier())
	b, err := repo.Get(ctx, address, token)
	if err != nil {
		return "", fmt.Errorf("reading address balance: %w", err)
	}
	return b.Balance.String(), nil
}

// --- HushIdentity ---

func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct{ PublicSigningAddress string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	profile, found, err := s.GetIdentity(r.Context(), req.PublicSigningAddress)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]bool{"notFound": true})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetIdentity implements HushIdentity.
func (s *Server) GetIdentity(ctx context.Context, publicSigningAddress string) (identity.Profile, bool, error) {
	uow := s.persist.CreateReadOnly(ctx)
	repo := identity.NewRepository(uow.Querier())
	p, err := repo.Get(ctx, publicSigningAddress)
	if errors.Is(err, persistence.ErrNotFound) {
		return identity.Profile{}, false, nil
	}
	if err != nil {
		return identity.Profile{}, false, fmt.Errorf("reading identity: %w", err)
	}
	return p, true, nil
}

func (s *Server) handleSearchByDisplayName(w http.ResponseWriter, r *http.Request) {
	var req struct{ Partial string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	profiles, err := s.SearchByDisplayName(r.Context(), req.Partial)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// SearchByDisplayName implements HushIdentity.
func (s *Server) SearchByDisplayName(ctx context.Context, partial string) ([]identity.Profile, error) {
	uow := s.persist.CreateReadOnly(ctx)
	repo := identity.NewRepository(uow.Querier())
	return repo.SearchByDisplayName(ctx, partial)
}

// --- HushFeeds ---

func (s *Server) handleGetPersonalFeed(w http.ResponseWriter, r *http.Request) {
	var req struct{ OwnerPublicAddress string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	feed, found, err := s.GetPersonalFeed(r.Context(), req.OwnerPublicAddress)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]bool{"notFound": true})
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// GetPersonalFeed implements HushFeeds.
func (s *Server) GetPersonalFeed(ctx context.Context, ownerPublicAddress string) (feeds.Feed, bool, error) {
	uow := s.persist.CreateReadOnly(ctx)
	repo := feeds.NewRepository(uow.Querier())
	f, err := repo.GetPersonalFeed(ctx, ownerPublicAddress)
	if errors.Is(err, persistence.ErrNotFound) {
		return feeds.Feed{}, false, nil
	}
	if err != nil {
		return feeds.Feed{}, false, fmt.Errorf("reading personal feed: %w", err)
	}
	return f, true, nil
}

// --- HushReactions ---

func (s *Server) handleGetReactionTallies(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeedId     string
		MessageIds []string
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	tallies, err := s.GetReactionTallies(r.Context(), req.FeedId, req.MessageIds)
	if err != nil {
		if errors.Is(err, errInvalidArgument) {
			writeInvalidArgument(w, err)
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tallies)
}

// GetReactionTallies implements HushReactions.
func (s *Server) GetReactionTallies(ctx context.Context, feedID string, messageIDs []string) ([]reactions.MessageReactionTally, error) {
	if _, err := decodeFeedId(feedID); err != nil {
		return nil, err
	}

	uow := s.persist.CreateReadOnly(ctx)
	repo := reactions.NewRepository(uow.Querier())

	out := make([]reactions.MessageReactionTally, 0, len(messageIDs))
	for _, raw := range messageIDs {
		messageID, err := decodeMessageId(raw)
		if err != nil {
			return nil, err
		}
		t, err := repo.GetTally(ctx, messageID)
		if err != nil {
			return nil, fmt.Errorf("reading tally for %s: %w", raw, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Server) handleNullifierExists(w http.ResponseWriter, r *http.Request) {
	var req struct{ Nullifier []byte }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	exists, err := s.NullifierExists(r.Context(), req.Nullifier)
	if err != nil {
		if errors.Is(err, errInvalidArgument) {
			writeInvalidArgument(w, err)
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// NullifierExists implements HushReactions.
func (s *Server) NullifierExists(ctx context.Context, nullifier []byte) (bool, error) {
	if err := validateNullifier(nullifier); err != nil {
		return false, err
	}
	uow := s.persist.CreateReadOnly(ctx)
	repo := reactions.NewRepository(uow.Querier())
	_, err := repo.GetNullifier(ctx, nullifier)
	if errors.Is(err, persistence.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading nullifier: %w", err)
	}
	return true, nil
}

func (s *Server) handleGetReactionBackup(w http.ResponseWriter, r *http.Request) {
	var req struct{ Nullifier []byte }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	backup, found, err := s.GetReactionBackup(r.Context(), req.Nullifier)
	if err != nil {
		if errors.Is(err, errInvalidArgument) {
			writeInvalidArgument(w, err)
			return
		}
		writeInternalError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]bool{"notFound": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]byte{"backup": backup})
}

// GetReactionBackup implements HushReactions.
func (s *Server) GetReactionBackup(ctx context.Context, nullifier []byte) ([]byte, bool, error) {
	if err := validateNullifier(nullifier); err != nil {
		return nil, false, err
	}
	uow := s.persist.CreateReadOnly(ctx)
	repo := reactions.NewRepository(uow.Querier())
	n, err := repo.GetNullifier(ctx, nullifier)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading nullifier: %w", err)
	}
	return n.EncryptedBackup, true, nil
}

// --- HushMembership ---

func (s *Server) handleGetMembershipProof(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeedId     string
		Commitment []byte
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	proof, err := s.GetMembershipProof(r.Context(), req.FeedId, req.Commitment)
	if err != nil {
		if errors.Is(err, errInvalidArgument) {
			writeInvalidArgument(w, err)
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proof)
}

// GetMembershipProof implements HushMembership.
func (s *Server) GetMembershipProof(ctx context.Context, feedID string, commitment []byte) (*merkle.InclusionProof, error) {
	id, err := decodeFeedId(feedID)
	if err != nil {
		return nil, err
	}
	if err := validateCommitment(commitment); err != nil {
		return nil, err
	}
	return s.members.GetMembershipProof(ctx, id, commitment)
}

func (s *Server) handleGetRecentMerkleRoots(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeedId string
		N      int
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	roots, err := s.GetRecentMerkleRoots(r.Context(), req.FeedId, req.N)
	if err != nil {
		if errors.Is(err, errInvalidArgument) {
			writeInvalidArgument(w, err)
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roots)
}

// GetRecentMerkleRoots implements HushMembership.
func (s *Server) GetRecentMerkleRoots(ctx context.Context, feedID string, n int) ([]reactions.MerkleRootHistory, error) {
	id, err := decodeFeedId(feedID)
	if err != nil {
		return nil, err
	}
	return s.members.GetRecentMerkleRoots(ctx, id, n)
}

func (s *Server) handleRegisterCommitment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeedId     string
		Commitment []byte
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	if err := s.RegisterCommitment(r.Context(), req.FeedId, req.Commitment); err != nil {
		if errors.Is(err, errInvalidArgument) {
			writeInvalidArgument(w, err)
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RegisterCommitment implements HushMembership. This is a direct-write
// path distinct from JoinGroupFeedStrategy's indexing-time registration;
// it exists for out-of-band commitment pre-registration flows.
func (s *Server) RegisterCommitment(ctx context.Context, feedID string, commitment []byte) error {
	id, err := decodeFeedId(feedID)
	if err != nil {
		return err
	}
	if err := validateCommitment(commitment); err != nil {
		return err
	}
	return s.members.RegisterCommitment(ctx, id, commitment)
}

func (s *Server) handleIsCommitmentRegistered(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeedId     string
		Commitment []byte
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, err)
		return
	}
	registered, err := s.IsCommitmentRegistered(r.Context(), req.FeedId, req.Commitment)
	if err != nil {
		if errors.Is(err, errInvalidArgument) {
			writeInvalidArgument(w, err)
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"registered": registered})
}

// IsCommitmentRegistered implements HushMembership.
func (s *Server) IsCommitmentRegistered(ctx context.Context, feedID string, commitment []byte) (bool, error) {
	id, err := decodeFeedId(feedID)
	if err != nil {
		return false, err
	}
	if err := validateCommitment(commitment); err != nil {
		return false, err
	}
	uow := s.persist.CreateReadOnly(ctx)
	repo := reactions.NewRepository(uow.Querier())
	return repo.IsCommitmentRegistered(ctx, id, commitment)
}
