package main

import (
	"bufio"
	"context"
	"io"

	"github.com/goccy/go-json"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/engine"
	"github.com/rushteam/wardrobe/pkg/logging"
)

// streamRequest 是 stream 子命令的一行输入：
//
//	{"op":"recommend","liked_ids":[1,2],"serendipity":0.3,"limit":5}
//	{"op":"capsule","liked_ids":[1],"budget":8}
//	{"op":"insights","liked_ids":[1],"disliked_ids":[4]}
//	{"op":"quiz","count":12,"seed":7}
//	{"op":"item","item_id":3}
type streamRequest struct {
	ID          string  `json:"id,omitempty"`
	Op          string  `json:"op"`
	LikedIDs    []int64 `json:"liked_ids"`
	DislikedIDs []int64 `json:"disliked_ids"`
	Serendipity float64 `json:"serendipity"`
	Limit       int     `json:"limit"`
	Budget      int     `json:"budget"`
	Filter      string  `json:"filter"`
	Count       int     `json:"count"`
	Seed        uint64  `json:"seed"`
	ItemID      int64   `json:"item_id"`
}

type streamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type streamResponse struct {
	ID     string       `json:"id,omitempty"`
	Op     string       `json:"op"`
	Result any          `json:"result,omitempty"`
	Error  *streamError `json:"error,omitempty"`
}

// maxStreamLine 是单行请求的最大字节数。
const maxStreamLine = 1 << 20

// serveStream 逐行读取 JSON 请求并逐行写出 JSON 响应，直到输入结束或 ctx 取消。
// 单个请求失败只影响该行的响应。
func serveStream(ctx context.Context, eng *engine.Engine, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxStreamLine)
	enc := json.NewEncoder(w)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var req streamRequest
		resp := streamResponse{}
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = &streamError{Code: core.ErrorCodeInvalidInput, Message: "invalid request: " + err.Error()}
		} else {
			resp.ID, resp.Op = req.ID, req.Op
			reqCtx, _ := logging.WithRequestID(ctx, req.ID)
			result, err := handleStream(reqCtx, eng, &req)
			if err != nil {
				resp.Error = toStreamError(err)
			} else {
				resp.Result = result
			}
		}
		if err := enc.Encode(&resp); err != nil {
			return err
		}
	}
	return sc.Err()
}

func handleStream(ctx context.Context, eng *engine.Engine, req *streamRequest) (any, error) {
	switch req.Op {
	case "recommend":
		return eng.Recommend(ctx, engine.RecommendRequest{
			LikedIDs:    req.LikedIDs,
			Serendipity: req.Serendipity,
			Limit:       req.Limit,
			Filter:      req.Filter,
		})
	case "capsule":
		return eng.BuildCapsule(ctx, engine.CapsuleRequest{LikedIDs: req.LikedIDs, Budget: req.Budget, Filter: req.Filter})
	case "insights":
		return eng.Insights(ctx, req.LikedIDs, req.DislikedIDs)
	case "quiz":
		return eng.QuizItems(ctx, req.Count, req.Seed)
	case "item":
		return eng.Item(req.ItemID)
	default:
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported, "unknown op "+req.Op)
	}
}

func toStreamError(err error) *streamError {
	if de := core.GetDomainError(err); de != nil {
		return &streamError{Code: de.Code, Message: err.Error()}
	}
	return &streamError{Code: core.ErrorCodeInternalError, Message: err.Error()}
}
