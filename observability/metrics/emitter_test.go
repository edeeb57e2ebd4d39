package metrics

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"optionfarm/core/events"
)

func TestEmitterRecordsEngineEvents(t *testing.T) {
	m := Farm()
	emitter := NewEmitter(nil)

	deposits := testutil.ToFloat64(m.deposits.WithLabelValues("7"))
	emitter.Emit(events.FarmDeposit{PoolID: 7, Participant: common.Address{}, Amount: big.NewInt(10)})
	require.Equal(t, deposits+1, testutil.ToFloat64(m.deposits.WithLabelValues("7")))

	issued := testutil.ToFloat64(m.claimsIssued)
	emitter.Emit(events.OptionIssued{ClaimID: 0, Owner: common.Address{}, Amount: big.NewInt(1), SettlementPrice: big.NewInt(1)})
	require.Equal(t, issued+1, testutil.ToFloat64(m.claimsIssued))

	exercised := testutil.ToFloat64(m.claimsExercised)
	emitter.Emit(events.OptionExercised{ClaimID: 0, Owner: common.Address{}, Amount: big.NewInt(1), Payment: big.NewInt(1)})
	require.Equal(t, exercised+1, testutil.ToFloat64(m.claimsExercised))
}

func TestCustodyGaugeTracksLastSample(t *testing.T) {
	m := Farm()

	m.SetCustodyBalance(300)
	require.Equal(t, float64(300), testutil.ToFloat64(m.custodyBalance))

	m.SetCustodyBalance(0)
	require.Equal(t, float64(0), testutil.ToFloat64(m.custodyBalance))
}
