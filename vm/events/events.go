package events

import (
	"encoding/json"
	"fmt"

	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

/*EventType - the kind of an event */
type EventType string

// event kinds, named as they appear in the json "type" field
const (
	STXTransfer   EventType = "stx_transfer_event"
	STXMint       EventType = "stx_mint_event"
	STXBurn       EventType = "stx_burn_event"
	FTTransfer    EventType = "ft_transfer_event"
	FTMint        EventType = "ft_mint_event"
	FTBurn        EventType = "ft_burn_event"
	NFTTransfer   EventType = "nft_transfer_event"
	NFTMint       EventType = "nft_mint_event"
	ContractEvent EventType = "contract_event"
)

/*Event - something a transaction did that observers are told about */
type Event interface {
	Type() EventType
	payload() map[string]interface{}
}

/*STXTransferEvent - native tokens moved */
type STXTransferEvent struct {
	Sender    types.Principal
	Recipient types.Principal
	Amount    types.UIntValue
}

/*STXMintEvent - native tokens created */
type STXMintEvent struct {
	Recipient types.Principal
	Amount    types.UIntValue
}

/*STXBurnEvent - native tokens destroyed */
type STXBurnEvent struct {
	Sender types.Principal
	Amount types.UIntValue
}

/*FTTransferEvent - contract tokens moved */
type FTTransferEvent struct {
	Asset     types.AssetIdentifier
	Sender    types.Principal
	Recipient types.Principal
	Amount    types.UIntValue
}

/*FTMintEvent - contract tokens created */
type FTMintEvent struct {
	Asset     types.AssetIdentifier
	Recipient types.Principal
	Amount    types.UIntValue
}

/*FTBurnEvent - contract tokens destroyed */
type FTBurnEvent struct {
	Asset  types.AssetIdentifier
	Sender types.Principal
	Amount types.UIntValue
}

/*NFTTransferEvent - a non fungible token changed owner */
type NFTTransferEvent struct {
	Asset     types.AssetIdentifier
	Sender    types.Principal
	Recipient types.Principal
	Value     types.Value
}

/*NFTMintEvent - a non fungible token was created */
type NFTMintEvent struct {
	Asset     types.AssetIdentifier
	Recipient types.Principal
	Value     types.Value
}

/*SmartContractEvent - a value printed by a contract */
type SmartContractEvent struct {
	Contract types.ContractIdentifier
	Topic    string
	Value    types.Value
}

func (e *STXTransferEvent) Type() EventType   { return STXTransfer }
func (e *STXMintEvent) Type() EventType       { return STXMint }
func (e *STXBurnEvent) Type() EventType       { return STXBurn }
func (e *FTTransferEvent) Type() EventType    { return FTTransfer }
func (e *FTMintEvent) Type() EventType        { return FTMint }
func (e *FTBurnEvent) Type() EventType        { return FTBurn }
func (e *NFTTransferEvent) Type() EventType   { return NFTTransfer }
func (e *NFTMintEvent) Type() EventType       { return NFTMint }
func (e *SmartContractEvent) Type() EventType { return ContractEvent }

func (e *STXTransferEvent) payload() map[string]interface{} {
	return map[string]interface{}{
		"sender":    e.Sender.String(),
		"recipient": e.Recipient.String(),
		"amount":    e.Amount.Decimal(),
	}
}

func (e *STXMintEvent) payload() map[string]interface{} {
	return map[string]interface{}{
		"recipient": e.Recipient.String(),
		"amount":    e.Amount.Decimal(),
	}
}

func (e *STXBurnEvent) payload() map[string]interface{} {
	return map[string]interface{}{
		"sender": e.Sender.String(),
		"amount": e.Amount.Decimal(),
	}
}

func (e *FTTransferEvent) payload() map[string]interface{} {
	return map[string]interface{}{
		"asset_identifier": e.Asset.String(),
		"sender":           e.Sender.String(),
		"recipient":        e.Recipient.String(),
		"amount":           e.Amount.Decimal(),
	}
}

func (e *FTMintEvent) payload() map[string]interface{} {
	return map[string]interface{}{
		"asset_identifier": e.Asset.String(),
		"recipient":        e.Recipient.String(),
		"amount":           e.Amount.Decimal(),
	}
}

func (e *FTBurnEvent) payload() map[string]interface{} {
	return map[string]interface{}{
		"asset_identifier": e.Asset.String(),
		"sender":           e.Sender.String(),
		"amount":           e.Amount.Decimal(),
	}
}

func (e *NFTTransferEvent) payload() map[string]interface{} {
	return map[string]interface{}{
		"asset_identifier": e.Asset.String(),
		"sender":           e.Sender.String(),
		"recipient":        e.Recipient.String(),
		"value":            types.JSON(e.Value),
		"raw_value":        types.SerializeHex(e.Value),
	}
}

func (e *NFTMintEvent) payload() map[string]interface{} {
	return map[string]interface{}{
		"asset_identifier": e.Asset.String(),
		"recipient":        e.Recipient.String(),
		"value":            types.JSON(e.Value),
		"raw_value":        types.SerializeHex(e.Value),
	}
}

func (e *SmartContractEvent) payload() map[string]interface{} {
	return map[string]interface{}{
		"contract_identifier": e.Contract.String(),
		"topic":               e.Topic,
		"value":               types.JSON(e.Value),
		"raw_value":           types.SerializeHex(e.Value),
	}
}

// MarshalEventJSON renders an event the way observers receive it.
func MarshalEventJSON(e Event, txid []byte, committed bool) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"txid":          fmt.Sprintf("0x%x", txid),
		"committed":     committed,
		"type":          string(e.Type()),
		string(e.Type()): e.payload(),
	})
}

/*Batch - the events emitted inside one transaction tier, in order */
type Batch struct {
	Events []Event
}

// Append records an event.
func (b *Batch) Append(e Event) {
	b.Events = append(b.Events, e)
}

// Merge appends the events of a committed child tier.
func (b *Batch) Merge(child *Batch) {
	if child == nil {
		return
	}
	b.Events = append(b.Events, child.Events...)
}

// Len returns the number of events.
func (b *Batch) Len() int {
	return len(b.Events)
}
