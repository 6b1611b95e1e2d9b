package april

// Params is the validated runtime parameter block, including the token
// vocabulary decoded alongside it. Token order is significant: a
// token's position is its vocabulary index, and BlankID indexes into
// the list.
type Params struct {
	BatchSize   int32
	SegmentSize int32
	SegmentStep int32
	MelFeatures int32
	SampleRate  int32

	FrameShiftMS  int32
	FrameLengthMS int32
	RoundPow2     bool
	MelLow        int32
	MelHigh       int32
	SnipEdges     bool

	BlankID int32

	Tokens []string
}

// rawParams mirrors the on-disk parameter block: thirteen i32 fields in
// file order, before the boolean fields are narrowed.
type rawParams struct {
	batchSize   int32
	segmentSize int32
	segmentStep int32
	melFeatures int32
	sampleRate  int32

	frameShiftMS  int32
	frameLengthMS int32
	roundPow2     int32
	melLow        int32
	melHigh       int32
	snipEdges     int32

	tokenCount int32
	blankID    int32
}

// fields returns the parameter destinations in on-disk order.
func (p *rawParams) fields() []*int32 {
	return []*int32{
		&p.batchSize, &p.segmentSize, &p.segmentStep, &p.melFeatures,
		&p.sampleRate, &p.frameShiftMS, &p.frameLengthMS, &p.roundPow2,
		&p.melLow, &p.melHigh, &p.snipEdges, &p.tokenCount, &p.blankID,
	}
}

// validate checks every documented parameter bound, stopping at the
// first violation. A MelHigh of zero means "unspecified" and always
// passes.
func (p *rawParams) validate() error {
	switch {
	case p.batchSize != 1:
		return &ParamRangeError{Field: "batch_size", Value: p.batchSize}
	case p.segmentSize <= 0 || p.segmentSize >= 100:
		return &ParamRangeError{Field: "segment_size", Value: p.segmentSize}
	case p.segmentStep <= 0 || p.segmentStep >= 100 || p.segmentStep > p.segmentSize:
		return &ParamRangeError{Field: "segment_step", Value: p.segmentStep}
	case p.melFeatures <= 0 || p.melFeatures >= 256:
		return &ParamRangeError{Field: "mel_features", Value: p.melFeatures}
	case p.sampleRate <= 0 || p.sampleRate >= 144000:
		return &ParamRangeError{Field: "sample_rate", Value: p.sampleRate}
	case p.tokenCount <= 0 || p.tokenCount >= 16384:
		return &ParamRangeError{Field: "token_count", Value: p.tokenCount}
	case p.blankID < 0 || p.blankID >= p.tokenCount:
		return &ParamRangeError{Field: "blank_id", Value: p.blankID}
	case p.frameShiftMS <= 0 || p.frameShiftMS > p.frameLengthMS:
		return &ParamRangeError{Field: "frame_shift_ms", Value: p.frameShiftMS}
	case p.frameLengthMS <= 0 || p.frameLengthMS > 5000:
		return &ParamRangeError{Field: "frame_length_ms", Value: p.frameLengthMS}
	case p.melLow <= 0 || p.melLow >= p.sampleRate:
		return &ParamRangeError{Field: "mel_low", Value: p.melLow}
	case p.melHigh != 0 && p.melHigh <= p.melLow:
		return &ParamRangeError{Field: "mel_high", Value: p.melHigh}
	}
	return nil
}

func (p *rawParams) params() Params {
	return Params{
		BatchSize:   p.batchSize,
		SegmentSize: p.segmentSize,
		SegmentStep: p.segmentStep,
		MelFeatures: p.melFeatures,
		SampleRate:  p.sampleRate,

		FrameShiftMS:  p.frameShiftMS,
		FrameLengthMS: p.frameLengthMS,
		RoundPow2:     p.roundPow2 != 0,
		MelLow:        p.melLow,
		MelHigh:       p.melHigh,
		SnipEdges:     p.snipEdges != 0,

		BlankID: p.blankID,
	}
}

func rawFromParams(p Params) rawParams {
	return rawParams{
		batchSize:   p.BatchSize,
		segmentSize: p.SegmentSize,
		segmentStep: p.SegmentStep,
		melFeatures: p.MelFeatures,
		sampleRate:  p.SampleRate,

		frameShiftMS:  p.FrameShiftMS,
		frameLengthMS: p.FrameLengthMS,
		roundPow2:     boolToI32(p.RoundPow2),
		melLow:        p.MelLow,
		melHigh:       p.MelHigh,
		snipEdges:     boolToI32(p.SnipEdges),

		tokenCount: int32(len(p.Tokens)),
		blankID:    p.BlankID,
	}
}

func boolToI32(v bool) int32 {
	if v {
		return 1
	}
	return 0
}
