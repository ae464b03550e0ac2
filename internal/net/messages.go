// Package net is the TCP wire protocol fenrir speaks: big-endian,
// length-prefixed binary messages in, binary reports out. Price/quantity
// fields are decimal strings rather than raw float64 bits, and the message
// set covers NewOrder/CancelOrder/ModifyOrder/QuerySummary plus a tagged
// Report union (trade vs. error).
package net

import (
	"encoding/binary"
	"errors"
	"fmt"

	. "fenrir/internal/common"
	"fenrir/internal/engine"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	ModifyOrder
	QuerySummary
	LogBook
)

type ReportMessageType uint8

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
)

// BaseMessageHeaderLen is the length of the leading type tag every wire
// message starts with.
const BaseMessageHeaderLen = 2

type Message interface {
	GetType() MessageType
}

type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return nil, ErrMessageTooShort
	}
	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case ModifyOrder:
		return parseModifyOrder(body)
	case QuerySummary:
		return parseQuerySummary(body)
	case LogBook:
		return BaseMessage{TypeOf: LogBook}, nil
	default:
		return nil, ErrInvalidMessageType
	}
}

// --- length-prefixed primitives -------------------------------------------

func putString8(buf []byte, off int, s string) int {
	buf[off] = uint8(len(s))
	off++
	copy(buf[off:], s)
	return off + len(s)
}

func readString8(msg []byte, off int) (string, int, error) {
	if off >= len(msg) {
		return "", off, ErrMessageTooShort
	}
	n := int(msg[off])
	off++
	if off+n > len(msg) {
		return "", off, ErrMessageTooShort
	}
	return string(msg[off : off+n]), off + n, nil
}

func putString16(buf []byte, off int, s string) int {
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(len(s)))
	off += 2
	copy(buf[off:], s)
	return off + len(s)
}

func readString16(msg []byte, off int) (string, int, error) {
	if off+2 > len(msg) {
		return "", off, ErrMessageTooShort
	}
	n := int(binary.BigEndian.Uint16(msg[off : off+2]))
	off += 2
	if off+n > len(msg) {
		return "", off, ErrMessageTooShort
	}
	return string(msg[off : off+n]), off + n, nil
}

// --- NewOrder --------------------------------------------------------------

// NewOrderMessage carries a submit command. Price is the empty string for
// market orders.
type NewOrderMessage struct {
	BaseMessage
	AssetType AssetType
	OrderType OrderType
	Side      Side
	Ticker    string
	Price     string // decimal string, empty iff OrderType == MarketOrder
	Quantity  string // decimal string
	TradeID   string
	Owner     string
}

// SubmitRequest builds the engine-level request from the wire message,
// assigning a fresh client-facing trade id if none was supplied.
func (m *NewOrderMessage) SubmitRequest() (engine.SubmitRequest, error) {
	qty, err := decimal.NewFromString(m.Quantity)
	if err != nil {
		return engine.SubmitRequest{}, fmt.Errorf("invalid quantity: %w", err)
	}

	req := engine.SubmitRequest{
		Side:      m.Side,
		OrderType: m.OrderType,
		Quantity:  qty,
		TradeID:   m.TradeID,
		Owner:     m.Owner,
	}

	if m.OrderType == LimitOrder {
		price, err := decimal.NewFromString(m.Price)
		if err != nil {
			return engine.SubmitRequest{}, fmt.Errorf("invalid price: %w", err)
		}
		req.Price = &price
	}

	if req.TradeID == "" {
		req.TradeID = uuid.NewString()
	}

	return req, nil
}

// Serialize encodes m for the wire.
func (m NewOrderMessage) Serialize() []byte { return serializeNewOrder(m) }

func serializeNewOrder(m NewOrderMessage) []byte {
	size := BaseMessageHeaderLen + 2 + 2 + 1 +
		1 + len(m.Ticker) +
		2 + len(m.Price) +
		2 + len(m.Quantity) +
		1 + len(m.TradeID) +
		1 + len(m.Owner)
	buf := make([]byte, size)

	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.AssetType))
	binary.BigEndian.PutUint16(buf[4:6], uint16(m.OrderType))
	buf[6] = uint8(m.Side)

	off := 7
	off = putString8(buf, off, m.Ticker)
	off = putString16(buf, off, m.Price)
	off = putString16(buf, off, m.Quantity)
	off = putString8(buf, off, m.TradeID)
	_ = putString8(buf, off, m.Owner)
	return buf
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < 5 {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.AssetType = AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderType = OrderType(binary.BigEndian.Uint16(msg[2:4]))
	m.Side = Side(msg[4])

	off := 5
	var err error
	if m.Ticker, off, err = readString8(msg, off); err != nil {
		return NewOrderMessage{}, err
	}
	if m.Price, off, err = readString16(msg, off); err != nil {
		return NewOrderMessage{}, err
	}
	if m.Quantity, off, err = readString16(msg, off); err != nil {
		return NewOrderMessage{}, err
	}
	if m.TradeID, off, err = readString8(msg, off); err != nil {
		return NewOrderMessage{}, err
	}
	if m.Owner, _, err = readString8(msg, off); err != nil {
		return NewOrderMessage{}, err
	}
	return m, nil
}

// --- CancelOrder -------------------------------------------------------

type CancelOrderMessage struct {
	BaseMessage
	AssetType AssetType
	Side      Side
	OrderID   uint64
}

const cancelOrderBodyLen = 2 + 1 + 8

// Serialize encodes m for the wire.
func (m CancelOrderMessage) Serialize() []byte { return serializeCancelOrder(m) }

func serializeCancelOrder(m CancelOrderMessage) []byte {
	buf := make([]byte, BaseMessageHeaderLen+cancelOrderBodyLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.AssetType))
	buf[4] = uint8(m.Side)
	binary.BigEndian.PutUint64(buf[5:13], m.OrderID)
	return buf
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < cancelOrderBodyLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.AssetType = AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.Side = Side(msg[2])
	m.OrderID = binary.BigEndian.Uint64(msg[3:11])
	return m, nil
}

// --- ModifyOrder -------------------------------------------------------

type ModifyOrderMessage struct {
	BaseMessage
	AssetType AssetType
	Side      Side
	OrderID   uint64
	Price     string
	Quantity  string
}

func (m *ModifyOrderMessage) ModifyRequest() (engine.ModifyRequest, error) {
	price, err := decimal.NewFromString(m.Price)
	if err != nil {
		return engine.ModifyRequest{}, fmt.Errorf("invalid price: %w", err)
	}
	qty, err := decimal.NewFromString(m.Quantity)
	if err != nil {
		return engine.ModifyRequest{}, fmt.Errorf("invalid quantity: %w", err)
	}
	return engine.ModifyRequest{Price: price, Quantity: qty}, nil
}

// Serialize encodes m for the wire.
func (m ModifyOrderMessage) Serialize() []byte { return serializeModifyOrder(m) }

func serializeModifyOrder(m ModifyOrderMessage) []byte {
	size := BaseMessageHeaderLen + 2 + 1 + 8 + 2 + len(m.Price) + 2 + len(m.Quantity)
	buf := make([]byte, size)
	binary.BigEndian.PutUint16(buf[0:2], uint16(ModifyOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.AssetType))
	buf[4] = uint8(m.Side)
	binary.BigEndian.PutUint64(buf[5:13], m.OrderID)

	off := 13
	off = putString16(buf, off, m.Price)
	_ = putString16(buf, off, m.Quantity)
	return buf
}

func parseModifyOrder(msg []byte) (ModifyOrderMessage, error) {
	if len(msg) < 11 {
		return ModifyOrderMessage{}, ErrMessageTooShort
	}
	m := ModifyOrderMessage{BaseMessage: BaseMessage{TypeOf: ModifyOrder}}
	m.AssetType = AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.Side = Side(msg[2])
	m.OrderID = binary.BigEndian.Uint64(msg[3:11])

	off := 11
	var err error
	if m.Price, off, err = readString16(msg, off); err != nil {
		return ModifyOrderMessage{}, err
	}
	if m.Quantity, _, err = readString16(msg, off); err != nil {
		return ModifyOrderMessage{}, err
	}
	return m, nil
}

// --- QuerySummary --------------------------------------------------------

type QuerySummaryMessage struct {
	BaseMessage
	AssetType AssetType
}

// Serialize encodes m for the wire.
func (m QuerySummaryMessage) Serialize() []byte { return serializeQuerySummary(m) }

func serializeQuerySummary(m QuerySummaryMessage) []byte {
	buf := make([]byte, BaseMessageHeaderLen+2)
	binary.BigEndian.PutUint16(buf[0:2], uint16(QuerySummary))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.AssetType))
	return buf
}

func parseQuerySummary(msg []byte) (QuerySummaryMessage, error) {
	if len(msg) < 2 {
		return QuerySummaryMessage{}, ErrMessageTooShort
	}
	return QuerySummaryMessage{
		BaseMessage: BaseMessage{TypeOf: QuerySummary},
		AssetType:   AssetType(binary.BigEndian.Uint16(msg[0:2])),
	}, nil
}

// SerializeLogBook encodes a bare LogBook command.
func SerializeLogBook() []byte {
	buf := make([]byte, BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(LogBook))
	return buf
}

// --- Report ----------------------------------------------------------------

// Report is the tagged reply the server sends back to a client: either one
// side of an executed trade, or an error keyed by one of the three engine
// error kinds, so callers can map it 1:1 to a transport status code.
type Report struct {
	MessageType  ReportMessageType
	ErrorKind    uint8 // meaningful only when MessageType == ErrorReport
	AssetType    AssetType
	Side         Side
	Timestamp    uint64
	Price        string
	Quantity     string
	OrderID      uint64
	TradeID      string
	Counterparty string
	NewBookQty   string // empty means "no residual" (fully consumed, or this is the taker leg)
	Err          string
}

const (
	ErrorKindInvalidQuantity uint8 = iota
	ErrorKindInvalidOrderType
	ErrorKindOrderNotFound
)

func (r *Report) Serialize() []byte {
	size := 1 + 1 + 2 + 1 + 8 +
		2 + len(r.Price) +
		2 + len(r.Quantity) +
		8 +
		1 + len(r.TradeID) +
		1 + len(r.Counterparty) +
		1 + len(r.NewBookQty) +
		2 + len(r.Err)
	buf := make([]byte, size)

	buf[0] = byte(r.MessageType)
	buf[1] = r.ErrorKind
	binary.BigEndian.PutUint16(buf[2:4], uint16(r.AssetType))
	buf[4] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[5:13], r.Timestamp)

	off := 13
	off = putString16(buf, off, r.Price)
	off = putString16(buf, off, r.Quantity)
	binary.BigEndian.PutUint64(buf[off:off+8], r.OrderID)
	off += 8
	off = putString8(buf, off, r.TradeID)
	off = putString8(buf, off, r.Counterparty)
	off = putString8(buf, off, r.NewBookQty)
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(len(r.Err)))
	off += 2
	copy(buf[off:], r.Err)
	return buf
}

// ParseReport decodes a Report off the wire, the client-side counterpart
// to Report.Serialize.
func ParseReport(msg []byte) (Report, error) {
	if len(msg) < 13 {
		return Report{}, ErrMessageTooShort
	}
	r := Report{
		MessageType: ReportMessageType(msg[0]),
		ErrorKind:   msg[1],
		AssetType:   AssetType(binary.BigEndian.Uint16(msg[2:4])),
		Side:        Side(msg[4]),
		Timestamp:   binary.BigEndian.Uint64(msg[5:13]),
	}

	off := 13
	var err error
	if r.Price, off, err = readString16(msg, off); err != nil {
		return Report{}, err
	}
	if r.Quantity, off, err = readString16(msg, off); err != nil {
		return Report{}, err
	}
	if off+8 > len(msg) {
		return Report{}, ErrMessageTooShort
	}
	r.OrderID = binary.BigEndian.Uint64(msg[off : off+8])
	off += 8
	if r.TradeID, off, err = readString8(msg, off); err != nil {
		return Report{}, err
	}
	if r.Counterparty, off, err = readString8(msg, off); err != nil {
		return Report{}, err
	}
	if r.NewBookQty, off, err = readString8(msg, off); err != nil {
		return Report{}, err
	}
	if off+2 > len(msg) {
		return Report{}, ErrMessageTooShort
	}
	errLen := int(binary.BigEndian.Uint16(msg[off : off+2]))
	off += 2
	if off+errLen > len(msg) {
		return Report{}, ErrMessageTooShort
	}
	r.Err = string(msg[off : off+errLen])
	return r, nil
}

// tradeReportsFor builds the pair of wire reports addressed to the maker
// and the taker of a single fill.
func tradeReportsFor(assetType AssetType, trade TradeRecord) (makerReport, takerReport Report) {
	newBookQty := ""
	if trade.Party1.NewBookQuantity != nil {
		newBookQty = trade.Party1.NewBookQuantity.String()
	}

	makerReport = Report{
		MessageType:  ExecutionReport,
		AssetType:    assetType,
		Side:         trade.Party1.Side,
		Timestamp:    trade.Timestamp,
		Price:        trade.Price.String(),
		Quantity:     trade.Quantity.String(),
		OrderID:      trade.Party1.OrderID,
		TradeID:      trade.Party1.TradeID,
		Counterparty: trade.Party2.Owner,
		NewBookQty:   newBookQty,
	}
	takerReport = Report{
		MessageType:  ExecutionReport,
		AssetType:    assetType,
		Side:         trade.Party2.Side,
		Timestamp:    trade.Timestamp,
		Price:        trade.Price.String(),
		Quantity:     trade.Quantity.String(),
		OrderID:      trade.Party2.OrderID,
		TradeID:      trade.Party2.TradeID,
		Counterparty: trade.Party1.Owner,
	}
	return makerReport, takerReport
}

// errorKindFor maps one of the three engine error sentinels onto its wire
// tag, defaulting to OrderNotFound for anything else.
func errorKindFor(err error) uint8 {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		return ErrorKindInvalidQuantity
	case errors.Is(err, ErrInvalidOrderType):
		return ErrorKindInvalidOrderType
	default:
		return ErrorKindOrderNotFound
	}
}

func errorReport(err error) Report {
	return Report{
		MessageType: ErrorReport,
		ErrorKind:   errorKindFor(err),
		Err:         err.Error(),
	}
}
