package block

import (
	"github.com/annel0/voxel-editor/internal/vec"
)

// OffsetCount — количество офсетов рёбер деформируемого куба.
const OffsetCount = 6

// AirTypeID — тип пустого блока; "0" принимается как синоним для старых данных.
const AirTypeID = "air"

// Block представляет собой блок редактируемого мира.
// Значение неизменяемо после чтения: мутация всегда идёт через Clone.
type Block struct {
	Pos       vec.Vec3               `json:"pos"`
	TypeID    string                 `json:"type_id"`
	Offsets   []float64              `json:"offsets,omitempty"` // Длина 6 или пусто
	Status    int                    `json:"status"`
	Modifiers map[string]interface{} `json:"modifiers,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Air создаёт пустой блок в указанной позиции
func Air(pos vec.Vec3) Block {
	return Block{
		Pos:    pos,
		TypeID: AirTypeID,
	}
}

// IsAir возвращает true для пустого блока
func (b Block) IsAir() bool {
	return b.TypeID == "" || b.TypeID == "0" || b.TypeID == AirTypeID
}

// IsCube возвращает true, если блок — деформируемый куб с шестью офсетами.
// Блоки без офсетов не участвуют в сглаживании.
func (b Block) IsCube() bool {
	return len(b.Offsets) == OffsetCount
}

// Clone создаёт глубокую копию блока
func (b Block) Clone() Block {
	clone := Block{
		Pos:    b.Pos,
		TypeID: b.TypeID,
		Status: b.Status,
	}

	if b.Offsets != nil {
		clone.Offsets = make([]float64, len(b.Offsets))
		copy(clone.Offsets, b.Offsets)
	}

	if b.Modifiers != nil {
		clone.Modifiers = make(map[string]interface{}, len(b.Modifiers))
		for k, v := range b.Modifiers {
			clone.Modifiers[k] = v
		}
	}

	if b.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(b.Metadata))
		for k, v := range b.Metadata {
			clone.Metadata[k] = v
		}
	}

	return clone
}
