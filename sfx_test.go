package mas

import (
	"testing"

	"github.com/quasilyte/mas/masfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	loopedSampleID  = 0
	oneShotSampleID = 1
)

func TestPlaySample(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{})

	h := e.PlaySample(loopedSampleID)
	require.NotZero(t, h)
	assert.True(t, e.EffectActive(h))

	_, voice, ok := e.resolveHandle(h)
	require.True(t, ok)
	m := &e.mixers[voice]
	assert.EqualValues(t, 11025, m.freq)
	assert.EqualValues(t, 255, m.vol)
	assert.EqualValues(t, 128, m.pan)
	assert.Equal(t, voiceCustom, e.voices[voice].kind)

	assert.Zero(t, e.PlaySample(2))
	assert.Zero(t, e.PlaySample(-1))
}

func TestEffectParameters(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{})
	e.SetEffectsVolume(512)

	h := e.PlayEffect(Effect{ID: loopedSampleID, Rate: 2048, Volume: 255, Panning: 0})
	require.NotZero(t, h)
	_, voice, _ := e.resolveHandle(h)
	m := &e.mixers[voice]
	assert.EqualValues(t, 22050, m.freq)
	assert.EqualValues(t, 127, m.vol)
	assert.EqualValues(t, 0, m.pan)

	e.ScaleEffectRate(h, 512)
	assert.EqualValues(t, 11025, m.freq)
	e.SetEffectRate(h, 8000)
	assert.EqualValues(t, 8000, m.freq)
	e.SetEffectPanning(h, 200)
	assert.EqualValues(t, 200, m.pan)
	e.SetEffectsVolume(1024)
	e.SetEffectVolume(h, 100)
	assert.EqualValues(t, 100, m.vol)

	m.read = 1 << 20
	again := e.PlayEffect(Effect{ID: loopedSampleID, Rate: 1024, Volume: 10, Panning: 64, Handle: h})
	assert.Equal(t, h, again)
	assert.Zero(t, m.read)
	assert.EqualValues(t, 10, m.vol)
}

func TestCancelEffect(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{})

	h := e.PlaySample(loopedSampleID)
	_, voice, _ := e.resolveHandle(h)
	assert.True(t, e.CancelEffect(h))
	assert.False(t, e.EffectActive(h))
	assert.Nil(t, e.mixers[voice].sample)

	// Stale handles are ignored.
	assert.False(t, e.CancelEffect(h))
	e.SetEffectVolume(h, 1)
	e.ReleaseEffect(h)
	assert.False(t, e.CancelEffect(0))
	assert.False(t, e.EffectActive(EffectHandle(0xFFFF)))

	// The slot is reused with a new generation.
	h2 := e.PlaySample(loopedSampleID)
	require.NotZero(t, h2)
	assert.NotEqual(t, h, h2)
	assert.Equal(t, h&0xFF, h2&0xFF)
	assert.False(t, e.EffectActive(h))
}

func TestEffectHandleGenerationWraps(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{})

	first := e.PlaySample(loopedSampleID)
	e.CancelEffect(first)
	for i := 0; i < 255; i++ {
		h := e.PlaySample(loopedSampleID)
		require.NotEqual(t, first, h)
		e.CancelEffect(h)
	}
	assert.Equal(t, first, e.PlaySample(loopedSampleID))
}

func TestCancelAllEffects(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{})

	a := e.PlaySample(loopedSampleID)
	b := e.PlaySample(loopedSampleID)
	released := e.PlaySample(loopedSampleID)
	e.ReleaseEffect(released)

	e.CancelAllEffects()
	assert.False(t, e.EffectActive(a))
	assert.False(t, e.EffectActive(b))
	for i := range e.voices {
		assert.Equal(t, voiceDisabled, e.voices[i].kind)
		assert.Nil(t, e.mixers[i].sample)
	}

	// The generation counter is not reset.
	c := e.PlaySample(loopedSampleID)
	assert.NotEqual(t, a, c)
}

func TestUpdateEffectsFreesFinished(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{})

	h := e.PlaySample(oneShotSampleID)
	released := e.PlaySample(oneShotSampleID)
	looped := e.PlaySample(loopedSampleID)
	_, releasedVoice, _ := e.resolveHandle(released)
	e.ReleaseEffect(released)
	assert.Equal(t, voiceBackground, e.voices[releasedVoice].kind)

	e.Frame()

	assert.False(t, e.EffectActive(h))
	assert.True(t, e.EffectActive(looped))
	assert.Equal(t, voiceDisabled, e.voices[releasedVoice].kind)

	out := e.back
	e.SwapBuffers()
	assert.Equal(t, out, e.FrontBuffer())
}

func TestEffectVoiceExhaustion(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{NumVoices: 2})

	require.NotZero(t, e.PlaySample(loopedSampleID))
	require.NotZero(t, e.PlaySample(loopedSampleID))
	assert.Zero(t, e.PlaySample(loopedSampleID))
}

func TestEffectSlotExhaustion(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{NumVoices: MaxVoices})

	for i := 0; i < numEffectSlots; i++ {
		require.NotZero(t, e.PlaySample(loopedSampleID))
	}
	assert.Zero(t, e.PlaySample(loopedSampleID))
}

func TestReservedVoices(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{NumVoices: 2})

	e.SetVoiceReserved(0, true)
	e.SetVoiceReserved(5, true)
	h := e.PlaySample(loopedSampleID)
	require.NotZero(t, h)
	_, voice, _ := e.resolveHandle(h)
	assert.Equal(t, 1, voice)
	assert.Zero(t, e.PlaySample(loopedSampleID))

	e.SetVoiceReserved(0, false)
	assert.NotZero(t, e.PlaySample(loopedSampleID))
}

func TestReservingEffectVoice(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{NumVoices: 2})

	h := e.PlaySample(loopedSampleID)
	require.NotZero(t, h)
	_, voice, _ := e.resolveHandle(h)

	e.SetVoiceReserved(voice, true)
	assert.False(t, e.EffectActive(h))

	// The stale handle must not reach the reserved voice.
	e.SetEffectVolume(h, 99)
	assert.EqualValues(t, 255, e.mixers[voice].vol)
	assert.False(t, e.CancelEffect(h))

	e.UpdateEffects()
	assert.Equal(t, voiceReserved, e.voices[voice].kind)
	assert.Nil(t, e.mixers[voice].sample)

	other := e.PlaySample(loopedSampleID)
	require.NotZero(t, other)
	_, otherVoice, _ := e.resolveHandle(other)
	assert.NotEqual(t, voice, otherVoice)
	assert.Zero(t, e.PlaySample(loopedSampleID))
}

func TestUpdateEffectsKeepsReservedVoice(t *testing.T) {
	e := newTestEngine(t, newTestBank(t), Config{NumVoices: 2})

	h := e.PlaySample(loopedSampleID)
	slot, voice, _ := e.resolveHandle(h)

	// A slot that still points at a voice taken over by the host.
	e.voices[voice].kind = voiceReserved
	e.mixers[voice].stop()
	e.UpdateEffects()

	assert.Equal(t, voiceReserved, e.voices[voice].kind)
	assert.Zero(t, e.sfx.used&(1<<slot))
}

func TestReservingVoiceDetachesTrack(t *testing.T) {
	bank := newTestBank(t, testModule([]masfile.Event{noteEvent(0, 60)}))
	e := newTestEngine(t, bank, Config{})
	require.NoError(t, e.Start(0, PlayLoop))
	e.Produce(make([]int16, 2))
	require.Equal(t, uint8(0), e.layers[LayerMain].channels[0].alloc)

	e.SetVoiceReserved(0, true)
	assert.EqualValues(t, noChannel, e.layers[LayerMain].channels[0].alloc)
	assert.Equal(t, voiceReserved, e.voices[0].kind)
	assert.Nil(t, e.mixers[0].sample)
}

func TestAllocVoice(t *testing.T) {
	tests := []struct {
		name   string
		voices []activeChannel
		want   uint8
	}{
		{
			name:   "first disabled",
			voices: []activeChannel{{kind: voiceForeground}, {kind: voiceDisabled}, {kind: voiceDisabled}},
			want:   1,
		},
		{
			name: "quietest background",
			voices: []activeChannel{
				{kind: voiceBackground, fvol: 100},
				{kind: voiceBackground, fvol: 10},
				{kind: voiceBackground, fvol: 50},
			},
			want: 1,
		},
		{
			name: "disabled beats background",
			voices: []activeChannel{
				{kind: voiceBackground, fvol: 0},
				{kind: voiceDisabled},
			},
			want: 1,
		},
		{
			name: "reserved skipped when full",
			voices: []activeChannel{
				{kind: voiceReserved},
				{kind: voiceBackground, fvol: 200},
				{kind: voiceReserved},
			},
			want: 1,
		},
		{
			name: "nothing evictable",
			voices: []activeChannel{
				{kind: voiceForeground},
				{kind: voiceReserved},
				{kind: voiceCustom},
			},
			want: noChannel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Engine{voices: tt.voices}
			assert.Equal(t, tt.want, e.allocVoice())
		})
	}
}
