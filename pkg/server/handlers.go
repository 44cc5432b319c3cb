package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lanshare/lanshare/pkg/protocol"
)

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.self)
}

func (s *Server) handleRegister(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if _, err := protocol.UnmarshalDeviceInfo(body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device info"})
		return
	}
	c.JSON(http.StatusOK, s.self)
}

// handlePrepareUpload is the heart of the receiver state machine
// (spec §4.3). It suspends on the consent bridge for up to
// consent.ConsentWindow before replying.
func (s *Server) handlePrepareUpload(c *gin.Context) {
	if s.pin != "" && c.Query("pin") != s.pin {
		status := protocol.HTTPStatus(protocol.InvalidPin)
		if c.Query("pin") == "" {
			status = protocol.HTTPStatus(protocol.PinRequired)
		}
		c.JSON(status, gin.H{"error": "invalid pin"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	req, err := protocol.UnmarshalPrepareUploadRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prepare-upload request"})
		return
	}

	messageOnly := protocol.AllMessageOnly(req.Files)

	sess := newSession(req.Info.Alias, req.Files)
	if !s.sessions.tryInstall(sess) {
		c.JSON(protocol.HTTPStatus(protocol.SessionBlocked), gin.H{"error": "blocked by another session"})
		return
	}

	accepted := s.bridge.Offer(c.Request.Context(), req.Info, req.Files)
	if !accepted {
		s.sessions.clearIfMatches(sess.id)
		c.JSON(protocol.HTTPStatus(protocol.Rejected), gin.H{"error": "rejected"})
		return
	}

	if messageOnly {
		now := time.Now()
		for _, file := range req.Files {
			if file.Preview == nil {
				continue
			}
			path, err := writeMessageFile(s.saveDir, file.FileName, *file.Preview, now)
			if err != nil {
				s.log.Error("write message file failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write message"})
				return
			}
			s.received.append(ReceivedFile{FileName: filepath.Base(path), Size: int64(len(*file.Preview)), Sender: req.Info.Alias, At: now})
		}
		s.sessions.clearIfMatches(sess.id)
		c.Status(http.StatusNoContent)
		return
	}

	s.sessions.touch(sess.id)

	tokens := make(map[string]string, len(sess.tokens))
	for fileID, token := range sess.tokens {
		tokens[fileID] = string(token)
	}
	c.JSON(http.StatusOK, protocol.PrepareUploadResponse{SessionID: sess.id, Files: tokens})
}

func (s *Server) handleUpload(c *gin.Context) {
	sessionID := c.Query("sessionId")
	fileID := c.Query("fileId")
	token := c.Query("token")

	current := s.sessions.get()
	if current == nil || current.id != sessionID {
		c.JSON(protocol.HTTPStatus(protocol.InvalidToken), gin.H{"error": "no such session"})
		return
	}
	if !protocol.Token(token).Valid(sessionID, fileID) {
		c.JSON(protocol.HTTPStatus(protocol.InvalidToken), gin.H{"error": "invalid token"})
		return
	}

	meta, ok := current.declared[fileID]
	if !ok {
		c.JSON(protocol.HTTPStatus(protocol.InvalidFile), gin.H{"error": "unknown file"})
		return
	}

	path := filepath.Join(s.saveDir, filepath.Base(meta.FileName))
	if err := os.MkdirAll(s.saveDir, 0o755); err != nil {
		c.JSON(protocol.HTTPStatus(protocol.IO), gin.H{"error": "failed to create save directory"})
		return
	}

	out, err := os.Create(path)
	if err != nil {
		c.JSON(protocol.HTTPStatus(protocol.IO), gin.H{"error": "failed to create file"})
		return
	}
	written, copyErr := io.Copy(out, c.Request.Body)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		c.JSON(protocol.HTTPStatus(protocol.IO), gin.H{"error": "failed to write file"})
		return
	}

	s.received.append(ReceivedFile{FileName: meta.FileName, Size: written, Sender: current.senderAlias, At: time.Now()})

	if _, ok := s.sessions.touchAndMarkUploaded(sessionID, fileID); !ok {
		// Session completed and was cleared by a concurrent upload racing
		// this one; the file is already written, nothing more to do.
		s.log.Debug("session already cleared when marking upload complete", "sessionId", sessionID, "fileId", fileID)
	}

	c.Status(http.StatusOK)
}

func (s *Server) handleCancel(c *gin.Context) {
	sessionID := c.Query("sessionId")
	s.sessions.clearIfMatches(sessionID)
	c.Status(http.StatusOK)
}
