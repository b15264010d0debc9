package feed

import "encoding/binary"

// OpenBook v1 event queue layout. The account starts with a fixed header
// (account flags + head/count/seq, little-endian, padded) followed by a
// circular buffer of fixed-size fill records.
const (
	queueHeaderLen = 29 // account flags (5) + pad, head u32 + pad, count u32 + pad, seq
	headOffset     = 8
	countOffset    = 16
	fillRecordSize = 88

	// Record flag bits, byte 0 of each record.
	flagFill = 0x1
	flagBid  = 0x4

	// Fixed offsets inside a fill record.
	qtyReleasedOffset = 8
	qtyPaidOffset     = 16

	// Native-unit scale factors for the SOL/USDC market.
	quoteScale = 1_000_000
	baseScale  = 1_000_000

	// One price lot in quote units per base unit on a book-side slab.
	priceLotMult = 0.0001
)

// Side distinguishes the resting side a fill executed against.
type Side int

const (
	SideAsk Side = iota
	SideBid
)

func (s Side) String() string {
	if s == SideBid {
		return "bid"
	}
	return "ask"
}

// Fill is one matched trade decoded from the event queue.
type Fill struct {
	Price float64
	Size  float64
	Side  Side
}

// DecodeLastFill extracts the most recently written fill from a raw
// event-queue account snapshot. It returns false for anything it cannot
// interpret: short buffers, empty queues, non-fill records and
// zero-quantity records. Callers treat false as skip, never as fatal.
func DecodeLastFill(raw []byte) (Fill, bool) {
	if len(raw) < queueHeaderLen {
		return Fill{}, false
	}
	head := binary.LittleEndian.Uint32(raw[headOffset : headOffset+4])
	count := binary.LittleEndian.Uint32(raw[countOffset : countOffset+4])

	capacity := (len(raw) - queueHeaderLen) / fillRecordSize
	if capacity == 0 || count == 0 {
		return Fill{}, false
	}
	lastIdx := (int(head) + int(count) - 1) % capacity
	recOff := queueHeaderLen + lastIdx*fillRecordSize
	if recOff+fillRecordSize > len(raw) {
		return Fill{}, false
	}
	rec := raw[recOff : recOff+fillRecordSize]

	flags := rec[0]
	if flags&flagFill == 0 {
		return Fill{}, false
	}
	side := SideAsk
	if flags&flagBid != 0 {
		side = SideBid
	}

	released := binary.LittleEndian.Uint64(rec[qtyReleasedOffset : qtyReleasedOffset+8])
	paid := binary.LittleEndian.Uint64(rec[qtyPaidOffset : qtyPaidOffset+8])
	if released == 0 {
		return Fill{}, false
	}
	return Fill{
		Price: float64(paid) / float64(released) / quoteScale,
		Size:  float64(released) / baseScale,
		Side:  side,
	}, true
}

// DecodeBestPrice reads the leading price-lot value of a book-side slab
// (bids or asks) and converts it to a quote-unit price. Zero lots means the
// side is empty or the snapshot is partial; callers keep the previous value.
func DecodeBestPrice(raw []byte) (float64, bool) {
	if len(raw) < 8 {
		return 0, false
	}
	lots := binary.LittleEndian.Uint64(raw[:8])
	if lots == 0 {
		return 0, false
	}
	return float64(lots) * priceLotMult, true
}
