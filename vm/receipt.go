package vm

import (
	"github.com/tyGavinZJU/miningbot-sub001/vm/assets"
	"github.com/tyGavinZJU/miningbot-sub001/vm/costs"
	"github.com/tyGavinZJU/miningbot-sub001/vm/events"
)

/*Receipt - what a committed top level operation did */
type Receipt struct {
	Assets *assets.AssetMap
	Events []events.Event
	Cost   costs.ExecutionCost
}

// MarshalEvents renders the events in emission order.
func (r *Receipt) MarshalEvents(txid []byte) ([][]byte, error) {
	out := make([][]byte, 0, len(r.Events))
	for _, e := range r.Events {
		data, err := events.MarshalEventJSON(e, txid, true)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
