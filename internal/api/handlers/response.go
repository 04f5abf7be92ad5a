package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/voxel"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/bot"
)

// errInvalidRequest はリクエストボディを解釈できない場合に返されます。
var errInvalidRequest = errors.New("invalid request")

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("[Handlers] レスポンスの書き込みに失敗しました")
	}
}

// statusFor は入力の構造エラーを 400、探索の期限切れを 503、それ以外を 500 に対応付けます。
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	for _, target := range []error{
		errInvalidRequest,
		tetris.ErrInvalidBoard,
		tetris.ErrInvalidPieceShape,
		voxel.ErrInvalidPit,
		voxel.ErrInvalidPieceShape,
		bot.ErrUnknownMode,
	} {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError は err に応じたステータスでエラーを返します。
func writeError(w http.ResponseWriter, component string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		log.Warn().Err(err).Msgf("[%s] 不正なリクエストです", component)
	case http.StatusServiceUnavailable:
		log.Warn().Err(err).Msgf("[%s] 期限内に候補を評価できませんでした", component)
	default:
		log.Error().Err(err).Msgf("[%s] リクエストの処理に失敗しました", component)
	}
	WriteErrorResponse(w, status, err.Error())
}
