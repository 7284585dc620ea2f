// api/analytics/actions.go
package analytics

import (
	"regexp"
	"strconv"
	"strings"
)

// ActionKind discriminates the closed set of decoded action categories.
type ActionKind int

const (
	// ActionIgnored covers malformed tokens and categories the reports do
	// not track. Ignored tokens contribute to no metric.
	ActionIgnored ActionKind = iota
	ActionClick
	ActionShare
	ActionDownload
)

// ParsedAction is the decoded form of one action token. Rank and ProductID
// are meaningful only when Kind is ActionClick.
type ParsedAction struct {
	Kind      ActionKind
	Rank      int
	ProductID string
}

const clickTokenPrefix = "result_opened"

var (
	clickRankPattern = regexp.MustCompile(`current_index_(\d+)`)
	publicIDPattern  = regexp.MustCompile(`public_id_(.+)$`)
)

// ParseAction decodes a single opaque action token. It never fails: tokens
// that cannot be decoded degrade to ActionIgnored, including result_opened
// tokens without a parseable rank (those are excluded from the click count
// so rank averages only ever see ranks that exist).
func ParseAction(token string) ParsedAction {
	switch token {
	case "link_copied", "result_shared_on_mail":
		return ParsedAction{Kind: ActionShare}
	case "summary_downloaded":
		return ParsedAction{Kind: ActionDownload}
	}

	if !strings.HasPrefix(token, clickTokenPrefix) {
		return ParsedAction{Kind: ActionIgnored}
	}

	rankMatch := clickRankPattern.FindStringSubmatch(token)
	if rankMatch == nil {
		return ParsedAction{Kind: ActionIgnored}
	}
	rank, err := strconv.Atoi(rankMatch[1])
	if err != nil || rank < 0 {
		return ParsedAction{Kind: ActionIgnored}
	}

	action := ParsedAction{Kind: ActionClick, Rank: rank}
	if idMatch := publicIDPattern.FindStringSubmatch(token); idMatch != nil {
		action.ProductID = idMatch[1]
	}
	return action
}

// RankBucket maps a 0-based click rank to its display bucket. Display rank
// is rank+1; everything past the third position is reported as one bucket.
func RankBucket(rank int) string {
	switch rank {
	case 0:
		return "Rank 1"
	case 1:
		return "Rank 2"
	case 2:
		return "Rank 3"
	default:
		return "Rank 4+"
	}
}
