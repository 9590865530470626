package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"travel-chat-be/internal/constant"
	"travel-chat-be/internal/dto"
	"travel-chat-be/internal/entity"
	"travel-chat-be/internal/pkg/logger"
	"travel-chat-be/internal/repository/specification"
	"travel-chat-be/internal/repository/unitofwork"
	"travel-chat-be/pkg/events"
	"travel-chat-be/pkg/llm"

	"github.com/google/uuid"
)

// IChatService is the chat core: session lifecycle, message access and
// the turn pipeline that feeds the model.
type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResponse, error)
	GetUserSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	UpdateSession(ctx context.Context, userId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error

	AppendMessage(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, role, chat string) (*dto.ChatMessageResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error)
	GetWindow(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error)
	GetMessageCount(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.MessageCountResponse, error)
	DeleteMessage(ctx context.Context, userId uuid.UUID, messageId uuid.UUID) error

	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	provider     llm.StreamProvider
	enricher     IEnrichmentService
	publisher    IPublisherService
	logger       logger.ILogger
	maxMessages  int
	windowSize   int
	historyLimit int
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.StreamProvider,
	enricher IEnrichmentService,
	publisher IPublisherService,
	log logger.ILogger,
	maxMessages int,
	windowSize int,
) IChatService {
	return &chatService{
		uowFactory:   uowFactory,
		provider:     provider,
		enricher:     enricher,
		publisher:    publisher,
		logger:       log,
		maxMessages:  maxMessages,
		windowSize:   windowSize,
		historyLimit: 1000,
	}
}

// --- Session lifecycle ---

func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	title := req.Title
	if title == "" {
		title = "Untitled Session"
	}

	session := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		Mood:      req.Mood,
		Style:     req.Style,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	cs.publishAudit(ctx, constant.EventChatSessionCreated, session.Id, userId, session.Title)

	return sessionToResponse(&session), nil
}

func (cs *chatService) GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	session, err := cs.findOwnedSession(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	return sessionToResponse(session), nil
}

func (cs *chatService) GetUserSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionResponse, len(sessions))
	for i, s := range sessions {
		res[i] = sessionToResponse(s)
	}
	return res, nil
}

func (cs *chatService) UpdateSession(ctx context.Context, userId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	session, err := cs.findOwnedSession(ctx, userId, req.Id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		session.Title = *req.Title
	}
	if req.Mood != nil {
		session.Mood = *req.Mood
	}
	if req.Style != nil {
		session.Style = *req.Style
	}
	now := time.Now()
	session.UpdatedAt = &now

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}
	return sessionToResponse(session), nil
}

// DeleteSession removes a session and cascades to its messages inside
// one transaction; a message cannot outlive its session.
func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	if _, err := cs.findOwnedSession(ctx, userId, sessionId); err != nil {
		return err
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteAllBySessionId(ctx, sessionId); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}

// --- Message access ---

func (cs *chatService) AppendMessage(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, role, chat string) (*dto.ChatMessageResponse, error) {
	if !constant.IsPersistableRole(role) {
		return nil, fmt.Errorf("role %q is not persistable", role)
	}
	if _, err := cs.findOwnedSession(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	msg, err := cs.saveMessage(ctx, sessionId, role, chat)
	if err != nil {
		return nil, err
	}
	return messageToResponse(msg), nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	if _, err := cs.findOwnedSession(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := cs.loadRecent(ctx, sessionId, cs.historyLimit)
	if err != nil {
		return nil, err
	}
	return messagesToResponses(messages), nil
}

// GetWindow exposes the bounded context window for callers that build
// their own prompts or enforce their own caps.
func (cs *chatService) GetWindow(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	if _, err := cs.findOwnedSession(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := cs.loadRecent(ctx, sessionId, cs.windowSize)
	if err != nil {
		return nil, err
	}
	return messagesToResponses(messages), nil
}

func (cs *chatService) GetMessageCount(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.MessageCountResponse, error) {
	if _, err := cs.findOwnedSession(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.ChatMessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: sessionId})
	if err != nil {
		return nil, err
	}
	return &dto.MessageCountResponse{SessionId: sessionId, Count: count}, nil
}

func (cs *chatService) DeleteMessage(ctx context.Context, userId uuid.UUID, messageId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	msg, err := uow.ChatMessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}

	// Ownership check runs through the session, not the message.
	if _, err := cs.findOwnedSession(ctx, userId, msg.ChatSessionId); err != nil {
		return err
	}

	return uow.ChatMessageRepository().Delete(ctx, messageId)
}

// --- Turn pipeline ---

// SendChat runs one full turn: resolve-or-create the session, enforce
// the cap, persist the user message, assemble the prompt, drive the
// model stream to completion and persist the reply. The ordering of
// those steps is a hard invariant; the window must see the user
// message just written.
func (cs *chatService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	session, created, err := cs.resolveSession(ctx, userId, req.SessionId)
	if err != nil {
		return nil, err
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if !created {
		count, err := uow.ChatMessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: session.Id})
		if err != nil {
			return nil, err
		}
		if count >= int64(cs.maxMessages) {
			return nil, ErrSessionFull
		}
	}

	if _, err := cs.saveMessage(ctx, session.Id, constant.ChatMessageRoleUser, req.Message); err != nil {
		return nil, err
	}

	window, err := cs.loadRecent(ctx, session.Id, cs.windowSize)
	if err != nil {
		return nil, err
	}

	prompt := cs.renderPrompt(window, cs.enricher.Enrich(ctx, req.Message))

	// The reply is accumulated and persisted on a detached context so a
	// caller disconnect never abandons a generation the backend already
	// paid for.
	reply := <-cs.completeTurn(context.WithoutCancel(ctx), session, userId, prompt)

	return &dto.SendChatResponse{
		Reply:     reply,
		SessionId: session.Id,
		Title:     session.Title,
	}, nil
}

func (cs *chatService) completeTurn(ctx context.Context, session *entity.ChatSession, userId uuid.UUID, prompt string) <-chan string {
	done := make(chan string, 1)
	go func() {
		var sb strings.Builder
		for fragment := range cs.provider.Stream(ctx, prompt) {
			sb.WriteString(fragment)
		}
		reply := strings.TrimSpace(sb.String())

		if _, err := cs.saveMessage(ctx, session.Id, constant.ChatMessageRoleAssistant, reply); err != nil {
			cs.logger.Error("chat", "Failed to persist assistant message", map[string]interface{}{
				"session_id": session.Id,
				"error":      err.Error(),
			})
		}

		cs.publishAudit(ctx, constant.EventChatTurnCompleted, session.Id, userId, "")

		done <- reply
	}()
	return done
}

// resolveSession returns the owned session for the supplied id, or a
// freshly created one when the id is blank, "new", unparsable or does
// not resolve for this user. A new session always gets a minted id;
// the caller-supplied one is never reused.
func (cs *chatService) resolveSession(ctx context.Context, userId uuid.UUID, sessionIdStr string) (*entity.ChatSession, bool, error) {
	if sessionId, err := uuid.Parse(sessionIdStr); err == nil {
		uow := cs.uowFactory.NewUnitOfWork(ctx)
		session, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.ByID{ID: sessionId},
			specification.ByUserID{UserID: userId},
		)
		if err != nil {
			return nil, false, err
		}
		if session != nil {
			return session, false, nil
		}
	}

	session := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     fmt.Sprintf("Chat %s", time.Now().Format("2006-01-02 15:04:05")),
		Mood:      constant.ChatSessionDefaultMood,
		Style:     constant.ChatSessionDefaultStyle,
		CreatedAt: time.Now(),
	}
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, false, err
	}

	cs.publishAudit(ctx, constant.EventChatSessionCreated, session.Id, userId, session.Title)

	return &session, true, nil
}

// loadRecent fetches the newest `limit` messages and reverses them to
// chronological order. The limit is a hard cap.
func (cs *chatService) loadRecent(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// renderPrompt flattens the window into role-prefixed lines, appending
// at most one synthetic system entry for enrichment.
func (cs *chatService) renderPrompt(window []*entity.ChatMessage, enrichment string) string {
	parts := make([]string, 0, len(window)+1)
	for _, m := range window {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Chat))
	}
	if enrichment != "" {
		parts = append(parts, fmt.Sprintf("%s: %s", constant.ChatMessageRoleSystem, enrichment))
	}
	return strings.Join(parts, "\n")
}

func (cs *chatService) saveMessage(ctx context.Context, sessionId uuid.UUID, role, chat string) (*entity.ChatMessage, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	msg := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          chat,
		Role:          role,
		ChatSessionId: sessionId,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (cs *chatService) findOwnedSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (cs *chatService) publishAudit(ctx context.Context, eventType string, sessionId, userId uuid.UUID, detail string) {
	if cs.publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"user_id":    userId,
			"detail":     detail,
		},
		OccurredAt: time.Now(),
	}
	// Audit is auxiliary; a publish failure never fails the request.
	if err := cs.publisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn("chat", "Failed to publish audit event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

// --- DTO mapping helpers ---

func sessionToResponse(s *entity.ChatSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		SessionId: s.Id,
		Title:     s.Title,
		Mood:      s.Mood,
		Style:     s.Style,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func messageToResponse(m *entity.ChatMessage) *dto.ChatMessageResponse {
	return &dto.ChatMessageResponse{
		Id:        m.Id,
		Role:      m.Role,
		Chat:      m.Chat,
		CreatedAt: m.CreatedAt,
	}
}

func messagesToResponses(msgs []*entity.ChatMessage) []*dto.ChatMessageResponse {
	res := make([]*dto.ChatMessageResponse, len(msgs))
	for i, m := range msgs {
		res[i] = messageToResponse(m)
	}
	return res
}
