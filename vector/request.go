package vector

type Match struct {
	Value any `json:"value"`
}

type Range struct {
	Gt  any `json:"gt,omitempty"`
	Gte any `json:"gte,omitempty"`
	Lt  any `json:"lt,omitempty"`
	Lte any `json:"lte,omitempty"`
}

type Condition struct {
	Key   string `json:"key"`
	Match *Match `json:"match,omitempty"`
	Range *Range `json:"range,omitempty"`
}

func MatchValue(key string, value any) Condition {
	return Condition{
		Key:   key,
		Match: &Match{Value: value},
	}
}

type Filter struct {
	Must []Condition `json:"must,omitempty"`
}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

type OrderBy struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction,omitempty"`
	StartFrom any       `json:"start_from,omitempty"`
}

type UpsertPointsRequest struct {
	Points []Point `json:"points"`
}

type RetrievePointsRequest struct {
	IDs         []PointID `json:"ids"`
	WithPayload any       `json:"with_payload"`
}

type SetPayloadRequest struct {
	Payload Payload   `json:"payload"`
	Points  []PointID `json:"points"`
}

type DeletePointsRequest struct {
	Points []PointID `json:"points"`
}

type SearchPointsRequest struct {
	Vector      []float32 `json:"vector"`
	Filter      *Filter   `json:"filter,omitempty"`
	Limit       int       `json:"limit"`
	WithPayload any       `json:"with_payload,omitempty"`
	GroupBy     string    `json:"group_by,omitempty"`
	GroupSize   int       `json:"group_size,omitempty"`
}

type QueryGroupsRequest struct {
	Query     QueryOrderBy `json:"query"`
	Filter    *Filter      `json:"filter,omitempty"`
	GroupBy   string       `json:"group_by"`
	Limit     int          `json:"limit"`
	GroupSize int          `json:"group_size"`
}

type QueryOrderBy struct {
	OrderBy OrderBy `json:"order_by"`
}

type ScrollPointsRequest struct {
	Offset  *int     `json:"offset,omitempty"`
	Limit   int      `json:"limit"`
	OrderBy *OrderBy `json:"order_by,omitempty"`
	Filter  *Filter  `json:"filter,omitempty"`
}
