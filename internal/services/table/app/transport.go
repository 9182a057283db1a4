package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/websocket"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fatexengine/fatex/internal/aspect/domain"
	apperrors "github.com/fatexengine/fatex/internal/errors"
	"github.com/fatexengine/fatex/internal/fate/item"
	"github.com/fatexengine/fatex/internal/fate/roll"
)

type wsSession struct {
	mu      sync.Mutex
	speaker string
	seated  bool
	peer    *wsPeer
}

func newWSSession(peer *wsPeer) *wsSession {
	return &wsSession{peer: peer}
}

func (s *wsSession) sit(speaker string) {
	s.mu.Lock()
	s.speaker = speaker
	s.seated = true
	s.mu.Unlock()
}

func (s *wsSession) seat() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaker, s.seated
}

func (s *Server) handleWSConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	peer := newWSPeer(json.NewEncoder(conn))
	session := newWSSession(peer)
	defer s.hub.leave(peer)

	ctx := context.Background()
	if request := conn.Request(); request != nil {
		ctx = request.Context()
	}

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(peer, "", "INVALID_ARGUMENT", "invalid frame payload", false)
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "payload too large", false)
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(peer, frame.RequestID, "RESOURCE_EXHAUSTED", "rate limit exceeded", false)
			return
		}

		switch frame.Type {
		case "table.join":
			s.handleJoinFrame(ctx, session, frame)
		case "roll.check":
			s.handleRollCheckFrame(ctx, session, frame)
		case "aspect.create":
			s.handleAspectCreateFrame(ctx, session, frame)
		case "aspect.toggle":
			s.handleAspectToggleFrame(ctx, session, frame)
		case "chat.rendered":
			s.handleRenderedFrame(session, frame)
		case "control.event":
			s.handleControlEventFrame(ctx, session, frame)
		default:
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type", false)
		}
	}
}

func (s *Server) handleJoinFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	var payload joinPayload
	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid join payload", false)
			return
		}
	}

	speaker := strings.TrimSpace(payload.Name)
	if speaker == "" {
		speaker = "participant"
	}
	if utf8.RuneCountInString(speaker) > maxSpeakerNameRunes {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "name must be at most 64 characters", false)
		return
	}

	entries, err := s.store.ListEntries(ctx, s.replayLimit)
	if err != nil {
		log.Printf("table: transcript replay failed: %v", err)
		_ = writeWSError(session.peer, frame.RequestID, "UNAVAILABLE", "transcript replay unavailable", true)
		return
	}

	session.sit(speaker)
	s.hub.join(session.peer)

	// Replay before announcing the seat so the peer renders the transcript
	// in stored order, then starts receiving live frames.
	for _, record := range entries {
		_ = session.peer.writeFrame(wsFrame{
			Type: "chat.entry",
			Payload: mustJSON(entryEnvelope{Entry: entryPayload{
				EntryID:     record.ID,
				Kind:        record.Kind,
				Speaker:     record.Speaker,
				ContentHTML: record.ContentHTML,
				CreatedAt:   record.CreatedAt.Format(time.RFC3339),
				UpdatedAt:   record.UpdatedAt.Format(time.RFC3339),
			}}),
		})
	}

	_ = session.peer.writeFrame(wsFrame{
		Type:      "table.joined",
		RequestID: frame.RequestID,
		Payload: mustJSON(joinedPayload{
			Speaker:    speaker,
			EntryCount: len(entries),
			ServerTime: time.Now().UTC().Format(time.RFC3339),
		}),
	})
}

func (s *Server) handleRollCheckFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	speaker, seated := session.seat()
	if !seated {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "must join the table before rolling", false)
		return
	}

	var payload rollCheckPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid roll payload", false)
		return
	}

	ctx, span := s.tracer.Start(ctx, "table.roll.check")
	defer span.End()

	kind, err := item.ParseKind(payload.Kind)
	if err != nil {
		s.writeDomainError(session.peer, frame.RequestID, err)
		return
	}
	rollable, err := item.New(kind, payload.Name, payload.Rank)
	if err != nil {
		s.writeDomainError(session.peer, frame.RequestID, err)
		return
	}
	modifier, err := roll.ParseModifier(payload.Modifier)
	if err != nil {
		s.writeDomainError(session.peer, frame.RequestID, err)
		return
	}

	span.SetAttributes(
		attribute.String("item.kind", kind.String()),
		attribute.Int("item.rank", rollable.Rank),
		attribute.Int("roll.modifier", modifier),
	)

	outcome, err := s.rollService.Check(ctx, roll.CheckRequest{
		Item:     rollable,
		Modifier: modifier,
		Speaker:  speaker,
	})
	if err != nil {
		s.writeDomainError(session.peer, frame.RequestID, err)
		return
	}

	values := make([]int, 0, len(outcome.Dice))
	for _, die := range outcome.Dice {
		values = append(values, die.Value)
	}
	_ = session.peer.writeFrame(wsFrame{
		Type:      "roll.result",
		RequestID: frame.RequestID,
		Payload: mustJSON(rollResultPayload{
			EntryID:     outcome.EntryID,
			Dice:        values,
			RawTotal:    outcome.RawTotal,
			GrandTotal:  outcome.GrandTotal,
			TotalString: outcome.TotalString,
			LadderLabel: outcome.LadderLabel,
		}),
	})
}

func (s *Server) handleAspectCreateFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	if _, seated := session.seat(); !seated {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "must join the table before creating aspects", false)
		return
	}

	var payload aspectCreatePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid aspect payload", false)
		return
	}
	if utf8.RuneCountInString(payload.Name) > maxAspectNameRunes {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "aspect name must be at most 200 characters", false)
		return
	}
	if payload.Invokes > maxInvokeBoxes {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "at most 20 free invokes per aspect", false)
		return
	}

	ctx, span := s.tracer.Start(ctx, "table.aspect.create")
	defer span.End()
	span.SetAttributes(attribute.Int("aspect.invokes", payload.Invokes))

	aspect, err := s.publisher.Publish(ctx, aspectCreateInput(payload), payload.Invokes)
	if err != nil {
		s.writeDomainError(session.peer, frame.RequestID, err)
		return
	}

	_ = session.peer.writeFrame(wsFrame{
		Type:      "aspect.created",
		RequestID: frame.RequestID,
		Payload:   mustJSON(aspectEnvelope{Aspect: aspectToPayload(aspect)}),
	})
}

func (s *Server) handleAspectToggleFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	if _, seated := session.seat(); !seated {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "must join the table before toggling aspects", false)
		return
	}

	var payload aspectTogglePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid toggle payload", false)
		return
	}

	ctx, span := s.tracer.Start(ctx, "table.aspect.toggle")
	defer span.End()

	aspect, err := s.publisher.Toggle(ctx, payload.AspectID, payload.BoxID)
	if err != nil {
		s.writeDomainError(session.peer, frame.RequestID, err)
		return
	}

	_ = session.peer.writeFrame(wsFrame{
		Type:      "aspect.updated",
		RequestID: frame.RequestID,
		Payload:   mustJSON(aspectEnvelope{Aspect: aspectToPayload(aspect)}),
	})
}

func (s *Server) handleRenderedFrame(session *wsSession, frame wsFrame) {
	if _, seated := session.seat(); !seated {
		return
	}
	var payload renderedPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid rendered payload", false)
		return
	}
	s.hub.announce(session.peer, payload.BindingIDs)
}

func (s *Server) handleControlEventFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	if _, seated := session.seat(); !seated {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "must join the table first", false)
		return
	}
	var payload controlEventPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid control payload", false)
		return
	}
	if !s.hub.dispatch(ctx, strings.TrimSpace(payload.BindingID), payload.Event) {
		// Unbound controls happen between render and re-attachment; clients
		// retry after the next chat.rendered announcement.
		_ = writeWSError(session.peer, frame.RequestID, "NOT_FOUND", "control is not bound", true)
	}
}

func aspectCreateInput(payload aspectCreatePayload) domain.CreateAspectInput {
	return domain.CreateAspectInput{
		Name:        payload.Name,
		Description: payload.Description,
	}
}

func aspectToPayload(aspect domain.Aspect) aspectPayload {
	boxes := make([]aspectBoxPayload, 0, len(aspect.Boxes))
	for _, box := range aspect.Boxes {
		boxes = append(boxes, aspectBoxPayload{BoxID: box.ID, Label: box.Label, Checked: box.Checked})
	}
	return aspectPayload{
		AspectID:    aspect.ID,
		Name:        aspect.Name,
		Description: aspect.Description,
		Boxes:       boxes,
	}
}

// writeDomainError puts a domain error on the wire through the same status
// mapping the gRPC surface uses. The ErrorInfo reason becomes the frame
// code and the LocalizedMessage the player-facing text; only statuses
// classed Unavailable are retryable.
func (s *Server) writeDomainError(peer *wsPeer, requestID string, err error) {
	code, message := apperrors.UserMessage(err, s.locale)
	st := status.Convert(apperrors.HandleError(err, s.locale))
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			code = apperrors.Code(d.Reason)
		case *errdetails.LocalizedMessage:
			message = d.Message
		}
	}
	retryable := st.Code() == codes.Unavailable
	_ = writeWSError(peer, requestID, string(code), message, retryable)
}

func writeWSError(peer *wsPeer, requestID string, code string, message string, retryable bool) error {
	return peer.writeFrame(wsFrame{
		Type:      "table.error",
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{
			Error: wsError{
				Code:      code,
				Message:   message,
				Retryable: retryable,
			},
		}),
	})
}
