package mas

import (
	"testing"

	"github.com/quasilyte/mas/internal/masdb"
	"github.com/quasilyte/mas/masfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantPCM(n int, v int8) []int8 {
	data := make([]int8, n)
	for i := range data {
		data[i] = v
	}
	return data
}

// newTestBank builds a bank with two samples (a looped one and a short
// one-shot) followed by the given modules.
func newTestBank(t *testing.T, modules ...*masfile.ModuleSpec) *masfile.Bank {
	t.Helper()
	b := masfile.NewBankBuilder()
	b.AddSample(masfile.Sample{Data: constantPCM(256, 64), LoopLength: 256, DefaultFrequency: 11025})
	b.AddSample(masfile.Sample{Data: constantPCM(16, 32), DefaultFrequency: 11025})
	for _, m := range modules {
		_, err := b.AddModule(m)
		require.NoError(t, err)
	}
	bank, err := masfile.OpenBank(b.Bytes())
	require.NoError(t, err)
	return bank
}

// testModule is a 4 channel module with a single pattern and one
// instrument playing the looped bank sample.
func testModule(rows ...[]masfile.Event) *masfile.ModuleSpec {
	if len(rows) == 0 {
		rows = [][]masfile.Event{nil}
	}
	return &masfile.ModuleSpec{
		Flags:        masfile.FlagLinearFreq,
		GlobalVolume: 128,
		InitialSpeed: 1,
		InitialTempo: 125,
		NumChannels:  4,
		Sequence:     []uint8{0, masfile.SequenceEnd},
		Instruments:  []masfile.InstrumentSpec{{GlobalVolume: 128, Sample: 1}},
		Samples: []masfile.SampleInfo{
			{DefaultVolume: 64, Frequency: 11025 / 4, GlobalVolume: 64, BankID: 0},
		},
		Patterns: []masfile.PatternSpec{{Rows: rows}},
	}
}

func noteEvent(channel int, note uint8) masfile.Event {
	return masfile.Event{
		Channel:    channel,
		Fields:     masfile.FieldNote | masfile.FieldInstrument,
		Note:       note,
		Instrument: 1,
	}
}

func newTestEngine(t *testing.T, bank *masfile.Bank, config Config) *Engine {
	t.Helper()
	e, err := NewEngine(bank, config)
	require.NoError(t, err)
	return e
}

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) handle(ev Event) {
	r.events = append(r.events, ev)
}

func (r *eventRecorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewEngineDefaults(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{})
	info := e.Info()
	assert.Equal(t, 16, info.NumVoices)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 738, info.SamplesPerFrame)
	assert.Equal(t, 738, e.SamplesPerFrame())
	assert.NotZero(t, info.MemoryUsage)
	assert.False(t, e.IsActive())
	assert.False(t, e.IsPaused())
}

func TestNewEngineErrors(t *testing.T) {
	bank := newTestBank(t)
	tests := []struct {
		name   string
		bank   *masfile.Bank
		config Config
	}{
		{name: "nil bank", config: Config{}},
		{name: "too many voices", bank: bank, config: Config{NumVoices: MaxVoices + 1}},
		{name: "negative voices", bank: bank, config: Config{NumVoices: -1}},
		{name: "low sample rate", bank: bank, config: Config{SampleRate: 500}},
		{name: "frame rate above sample rate", bank: bank, config: Config{SampleRate: 8000, FrameRate: 9000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.bank, tt.config)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestStartUnknownModule(t *testing.T) {
	e := newTestEngine(t, newTestBank(t, testModule()), Config{})
	err := e.Start(1, PlayLoop)
	assert.ErrorIs(t, err, ErrUnknownModule)
	assert.ErrorIs(t, e.StartJingle(-1), ErrUnknownModule)
	assert.False(t, e.IsActive())
	assert.NoError(t, e.Start(0, PlayLoop))
	assert.True(t, e.IsActive())
}

func TestNoteOutput(t *testing.T) {
	bank := newTestBank(t, testModule([]masfile.Event{noteEvent(0, 60)}, nil, nil, nil))

	tests := []struct {
		name      string
		volume    int
		wantLeft  int16
		wantRight int16
	}{
		{name: "full volume", volume: 1024, wantLeft: 8096, wantRight: 8160},
		{name: "half volume", volume: 512, wantLeft: 4064, wantRight: 4096},
		{name: "muted", volume: 0, wantLeft: 0, wantRight: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, bank, Config{})
			e.SetModuleVolume(tt.volume)
			require.NoError(t, e.Start(0, PlayLoop))

			out := make([]int16, 2*64)
			e.Produce(out)
			for i := 0; i < len(out); i += 2 {
				require.Equal(t, tt.wantLeft, out[i], "left sample %d", i/2)
				require.Equal(t, tt.wantRight, out[i+1], "right sample %d", i/2)
			}
		})
	}
}

func TestNoteFrequency(t *testing.T) {
	bank := newTestBank(t, testModule([]masfile.Event{noteEvent(0, 60), noteEvent(1, 72)}))

	e := newTestEngine(t, bank, Config{})
	require.NoError(t, e.Start(0, PlayLoop))
	e.Produce(make([]int16, 2))

	// C-5 plays at the sample rate, the octave above doubles it.
	assert.EqualValues(t, 11024, e.mixers[0].freq)
	assert.EqualValues(t, 22048, e.mixers[1].freq)

	e.SetPitch(2048)
	e.processTick(&e.layers[LayerMain])
	assert.EqualValues(t, 22048, e.mixers[0].freq)

	e.SetPitch(1 << 20)
	assert.EqualValues(t, 2048, e.masterPitch)
}

func TestPlayOnceFinishes(t *testing.T) {
	bank := newTestBank(t, testModule([]masfile.Event{noteEvent(0, 60)}, nil, nil, nil))
	e := newTestEngine(t, bank, Config{})
	var rec eventRecorder
	e.SetEventHandler(rec.handle)

	require.NoError(t, e.Start(0, PlayOnce))
	// 4 rows at speed 1 take 4 ticks of 882 samples.
	e.Produce(make([]int16, 2*44100))

	assert.Equal(t, 1, rec.count(EventSongFinished))
	assert.Equal(t, LayerMain, rec.events[0].Layer)
	assert.False(t, e.IsActive())
	assert.False(t, e.IsPaused())

	// Stopped layers release their voices.
	for i := range e.voices {
		assert.Equal(t, voiceDisabled, e.voices[i].kind)
	}
}

func TestPlayLoopWraps(t *testing.T) {
	bank := newTestBank(t, testModule(nil, nil, nil, nil))
	e := newTestEngine(t, bank, Config{})
	var rec eventRecorder
	e.SetEventHandler(rec.handle)

	require.NoError(t, e.Start(0, PlayLoop))
	l := &e.layers[LayerMain]
	for i := 0; i < 10; i++ {
		e.processTick(l)
	}

	assert.Empty(t, rec.events)
	assert.True(t, e.IsActive())
	assert.Equal(t, 0, e.Position())
	assert.Equal(t, 2, e.Row())
	assert.Equal(t, 0, e.Tick())
}

func TestPlayLoopRepeatPosition(t *testing.T) {
	spec := testModule(nil, nil)
	spec.Patterns = append(spec.Patterns, masfile.PatternSpec{Rows: [][]masfile.Event{nil, nil}})
	spec.Sequence = []uint8{0, 1, masfile.SequenceEnd}
	spec.RepeatPosition = 1
	e := newTestEngine(t, newTestBank(t, spec), Config{})
	var rec eventRecorder
	e.SetEventHandler(rec.handle)

	require.NoError(t, e.Start(0, PlayLoop))
	l := &e.layers[LayerMain]

	// 0:0 0:1 1:0 1:1, then the loop restarts at position 1.
	for i := 0; i < 5; i++ {
		e.processTick(l)
	}
	assert.Equal(t, 1, e.Position())
	assert.Equal(t, 1, e.Row())

	for i := 0; i < 4; i++ {
		e.processTick(l)
	}
	assert.Equal(t, 1, e.Position())
	assert.Equal(t, 1, e.Row())
	assert.Empty(t, rec.events)
	assert.True(t, e.IsActive())
}

func TestSequenceSkip(t *testing.T) {
	spec := testModule(nil, nil)
	spec.Sequence = []uint8{masfile.SequenceSkip, 0, masfile.SequenceEnd}
	e := newTestEngine(t, newTestBank(t, spec), Config{})

	require.NoError(t, e.Start(0, PlayLoop))
	assert.Equal(t, 1, e.Position())

	e.SetPosition(0)
	assert.Equal(t, 1, e.Position())
}

func TestCorruptPatternStopsLayer(t *testing.T) {
	spec := testModule([]masfile.Event{noteEvent(6, 60)})
	spec.NumChannels = 8
	e := newTestEngine(t, newTestBank(t, spec), Config{})
	var rec eventRecorder
	e.SetEventHandler(rec.handle)

	// The jingle layer has 4 channels; a higher one is a song error.
	require.NoError(t, e.StartJingle(0))
	assert.Equal(t, jingleChannels, e.layers[LayerJingle].numChannels)
	assert.True(t, e.IsJingleActive())

	for i := 0; i < 4; i++ {
		e.Frame()
	}

	require.Len(t, rec.events, 1)
	assert.Equal(t, EventSongError, rec.events[0].Kind)
	assert.Equal(t, LayerJingle, rec.events[0].Layer)
	assert.False(t, e.IsJingleActive())

	// The same module is fine on the main layer.
	require.NoError(t, e.Start(0, PlayLoop))
	e.Produce(make([]int16, 2*1000))
	assert.True(t, e.IsActive())
	assert.Len(t, rec.events, 1)
}

func TestJingleVoicesAreSeparate(t *testing.T) {
	bank := newTestBank(t, testModule([]masfile.Event{noteEvent(0, 60)}, nil, nil, nil))
	e := newTestEngine(t, bank, Config{})

	require.NoError(t, e.StartJingle(0))
	for i := 0; i < 4 && e.voices[0].kind == voiceDisabled; i++ {
		e.Frame()
	}
	require.Equal(t, voiceForeground, e.voices[0].kind)
	assert.True(t, e.voices[0].flags.Contains(voiceSub))

	e.Stop()
	assert.Equal(t, voiceForeground, e.voices[0].kind)

	e.StopJingle()
	assert.Equal(t, voiceDisabled, e.voices[0].kind)
	assert.Nil(t, e.mixers[0].sample)
}

func TestPauseResume(t *testing.T) {
	bank := newTestBank(t, testModule([]masfile.Event{noteEvent(0, 60)}, nil, nil, nil))
	e := newTestEngine(t, bank, Config{})
	require.NoError(t, e.Start(0, PlayLoop))
	e.Produce(make([]int16, 2*100))
	row := e.Row()

	e.Pause()
	assert.True(t, e.IsPaused())
	assert.False(t, e.IsActive())
	assert.Zero(t, e.mixers[0].freq)
	assert.Zero(t, e.mixers[0].vol)

	out := make([]int16, 2*4000)
	e.Produce(out)
	for _, v := range out {
		require.Zero(t, v)
	}
	assert.Equal(t, row, e.Row())

	e.Resume()
	assert.True(t, e.IsActive())
	assert.False(t, e.IsPaused())
	e.Produce(make([]int16, 2*1000))
	assert.NotZero(t, e.mixers[0].vol)
}

func TestProduceChunking(t *testing.T) {
	rows := [][]masfile.Event{
		{noteEvent(0, 60), {Channel: 1, Fields: masfile.FieldNote | masfile.FieldInstrument | masfile.FieldEffect, Note: 55, Instrument: 1, Effect: masdb.EffectVolumeSlide, Param: 0x02}},
		{{Channel: 0, Fields: masfile.FieldEffect, Effect: masdb.EffectVibrato, Param: 0x44}},
		{noteEvent(2, 67)},
		{{Channel: 0, Fields: masfile.FieldNote, Note: masfile.NoteCut}},
	}
	bank := newTestBank(t, testModule(rows...))

	for _, ramping := range []bool{false, true} {
		whole := newTestEngine(t, bank, Config{VolumeRamping: ramping})
		chunked := newTestEngine(t, bank, Config{VolumeRamping: ramping})
		require.NoError(t, whole.Start(0, PlayLoop))
		require.NoError(t, chunked.Start(0, PlayLoop))

		const numSamples = 5000
		want := make([]int16, 2*numSamples)
		whole.Produce(want)

		got := make([]int16, 0, 2*numSamples)
		buf := make([]int16, 2*7)
		for len(got) < len(want) {
			chunk := buf[:min(len(buf), len(want)-len(got))]
			chunked.Produce(chunk)
			got = append(got, chunk...)
		}

		require.Equal(t, want, got, "ramping=%v", ramping)
	}
}

func TestSetTempo(t *testing.T) {
	e := newTestEngine(t, newTestBank(t, testModule(nil, nil)), Config{})
	require.NoError(t, e.Start(0, PlayLoop))
	clock := e.layers[LayerMain].clock.(*sampleClock)
	assert.EqualValues(t, 882, clock.rate>>16)

	e.SetTempo(2048)
	assert.EqualValues(t, 441, clock.rate>>16)

	e.SetTempo(0)
	assert.EqualValues(t, 512, e.masterTempo)
	assert.EqualValues(t, 1778, clock.rate>>16)
}

func TestSongMessage(t *testing.T) {
	rows := [][]masfile.Event{
		{{Channel: 0, Fields: masfile.FieldEffect, Effect: masdb.EffectExtended, Param: 0xF3}},
	}
	e := newTestEngine(t, newTestBank(t, testModule(rows...)), Config{})
	var rec eventRecorder
	e.SetEventHandler(rec.handle)

	require.NoError(t, e.Start(0, PlayOnce))
	e.processTick(&e.layers[LayerMain])

	require.Equal(t, 1, rec.count(EventSongMessage))
	assert.EqualValues(t, 3, rec.events[0].Param)
	assert.Equal(t, LayerMain, rec.events[0].Layer)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "SongFinished", EventSongFinished.String())
	assert.Equal(t, "SongError", EventSongError.String())
	assert.Equal(t, "Unknown", EventKind(100).String())
	assert.Equal(t, "jingle", LayerJingle.String())
}

func TestNewNoteActions(t *testing.T) {
	tests := []struct {
		name       string
		nna        masfile.NewNoteAction
		dct        masfile.DuplicateCheckType
		dca        masfile.DuplicateCheckAction
		secondNote uint8
		wantAlloc  uint8
		wantKind   voiceType
		wantSet    voiceFlags
		wantClear  voiceFlags
	}{
		{
			name:       "cut reuses the voice",
			nna:        masfile.NNACut,
			secondNote: 64,
			wantAlloc:  0,
			wantKind:   voiceForeground,
			wantSet:    voiceKeyOn,
		},
		{
			name:       "continue",
			nna:        masfile.NNAContinue,
			secondNote: 64,
			wantAlloc:  1,
			wantKind:   voiceBackground,
			wantSet:    voiceKeyOn,
			wantClear:  voiceFade,
		},
		{
			name:       "note off",
			nna:        masfile.NNAOff,
			secondNote: 64,
			wantAlloc:  1,
			wantKind:   voiceBackground,
			wantClear:  voiceKeyOn,
		},
		{
			name:       "fade",
			nna:        masfile.NNAFade,
			secondNote: 64,
			wantAlloc:  1,
			wantKind:   voiceBackground,
			wantSet:    voiceFade,
		},
		{
			name:       "duplicate instrument overrides continue",
			nna:        masfile.NNAContinue,
			dct:        masfile.DCTInstrument,
			dca:        masfile.DCAOff,
			secondNote: 64,
			wantAlloc:  1,
			wantKind:   voiceBackground,
			wantClear:  voiceKeyOn,
		},
		{
			name:       "duplicate note",
			nna:        masfile.NNAContinue,
			dct:        masfile.DCTNote,
			dca:        masfile.DCAFade,
			secondNote: 60,
			wantAlloc:  1,
			wantKind:   voiceBackground,
			wantSet:    voiceFade,
		},
		{
			name:       "different note is not a duplicate",
			nna:        masfile.NNAContinue,
			dct:        masfile.DCTNote,
			dca:        masfile.DCAOff,
			secondNote: 64,
			wantAlloc:  1,
			wantKind:   voiceBackground,
			wantSet:    voiceKeyOn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := testModule(
				[]masfile.Event{noteEvent(0, 60)},
				[]masfile.Event{noteEvent(0, tt.secondNote)},
			)
			spec.Instruments[0].NNA = tt.nna
			spec.Instruments[0].DCT = tt.dct
			spec.Instruments[0].DCA = tt.dca
			e := newTestEngine(t, newTestBank(t, spec), Config{})

			require.NoError(t, e.Start(0, PlayLoop))
			l := &e.layers[LayerMain]
			e.processTick(l)
			require.Equal(t, uint8(0), l.channels[0].alloc)
			e.processTick(l)

			assert.Equal(t, tt.wantAlloc, l.channels[0].alloc)
			old := e.voices[0]
			assert.Equal(t, tt.wantKind, old.kind)
			assert.Equal(t, tt.wantSet, old.flags&tt.wantSet)
			assert.Zero(t, old.flags&tt.wantClear)
			if tt.wantAlloc != 0 {
				assert.Equal(t, voiceForeground, e.voices[tt.wantAlloc].kind)
			}
		})
	}
}
