package mcp

import (
	"fmt"

	"go.uber.org/zap"

	"storyforge/internal/engine"
)

func (s *Server) open(seed *uint64) (string, *session, error) {
	var value uint64
	if seed != nil {
		value = *seed
	} else {
		v, err := s.seed()
		if err != nil {
			return "", nil, err
		}
		value = v
	}

	pt := engine.New(s.world, value, s.log)
	sess := &session{pt: pt}

	s.mu.Lock()
	s.sessions[pt.ID()] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	s.log.Info("session opened", zap.String("session", pt.ID()), zap.Int("open", count))
	return pt.ID(), sess, nil
}

func (s *Server) lookup(id string) (*session, error) {
	if id == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	return sess, nil
}

func (s *Server) close(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.log.Info("session closed", zap.String("session", id))
	}
	return ok
}

// with runs fn holding the session's lock.
func (s *Server) with(id string, fn func(pt *engine.Playthrough) error) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.pt)
}
