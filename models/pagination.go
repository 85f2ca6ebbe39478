package models

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"gorm.io/gorm"
)

type PageInfo struct {
	StartCursor string `json:"startCursor"`
	EndCursor   string `json:"endCursor"`
	HasNextPage *bool  `json:"hasNextPage,omitempty"`
}

type Identifier interface {
	GetId() int
}

type Cursor interface {
	GetCursor() string
}

// CompositeCursor pages on (cursor column, id) so rows sharing a timestamp
// never repeat or vanish between pages.
type CompositeCursor interface {
	Cursor
	Identifier
}

type Edge[N Cursor] struct {
	Node   *N     `json:"node"`
	Cursor string `json:"cursor"`
}

func EncodeCompositeCursor(cursorValue string, id int) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s|%d", cursorValue, id)))
}

func DecodeCompositeCursor(cursor *string) (string, int) {
	if cursor == nil || *cursor == "" {
		return "", 0
	}
	decoded, err := base64.StdEncoding.DecodeString(*cursor)
	if err != nil {
		return "", 0
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return "", 0
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0
	}
	return parts[0], id
}

// fetch one page ordered newest-first on cursorColumn, id
func FetchPageCompositeCursor[T CompositeCursor](dbCtx *gorm.DB,
	limit int,
	after *string,
	cursorColumn string,
) ([]Edge[T], *PageInfo, error) {

	nodes := make([]*T, 0)

	dbCtx.Order(cursorColumn + " DESC, id DESC")

	decodedCursor, cursorId := DecodeCompositeCursor(after)
	if decodedCursor != "" {
		dbCtx.Where(
			fmt.Sprintf("%[1]s < ? OR (%[1]s = ? AND id < ?)", cursorColumn),
			decodedCursor, decodedCursor, cursorId)
	}

	dbCtx.Limit(limit + 1)
	if err := dbCtx.Find(&nodes).Error; err != nil {
		return nil, nil, err
	}

	count := 0
	hasNextPage := false
	edges := make([]Edge[T], 0, len(nodes))
	for _, node := range nodes {
		if count == limit {
			hasNextPage = true
		}
		if count < limit {
			var edge Edge[T]
			edge.Node = node
			edge.Cursor = EncodeCompositeCursor((*node).GetCursor(), (*node).GetId())
			edges = append(edges, edge)
			count++
		}
	}

	pageInfo := PageInfo{
		StartCursor: "",
		EndCursor:   "",
		HasNextPage: utils.NewFalse(),
	}
	if count > 0 {
		pageInfo = PageInfo{
			StartCursor: edges[0].Cursor,
			EndCursor:   edges[count-1].Cursor,
			HasNextPage: &hasNextPage,
		}
	}

	return edges, &pageInfo, nil
}
