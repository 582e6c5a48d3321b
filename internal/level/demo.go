package level

import (
	"encoding/json"

	"savestate-server/internal/checkpoint"
	"savestate-server/internal/components"
	"savestate-server/internal/domain"
)

// Demo — встроенный уровень: коридор с тремя чекпоинтами, дверью,
// сундуком и стражем. Используется, если LEVEL_PATH не задан.
func Demo() Definition {
	at := func(x, z float64) domain.Pose {
		return domain.Pose{Position: domain.Vec3{X: x, Z: z}}
	}

	return Definition{
		ID:   1000,
		Name: "Коридор",
		Player: PlayerDef{
			ID:    1,
			Name:  "Герой",
			Pose:  at(0, 0),
			MaxHP: 100,
		},
		Entities: []EntityDef{
			{
				ID: 10, Type: domain.EntityTypeProp, Name: "Страж",
				Pose: at(25, 2),
				Components: []components.Spec{
					{Kind: components.KindHealth, Params: json.RawMessage(`{"maxHp":40}`)},
				},
			},
			{
				ID: 11, Type: domain.EntityTypeProp, Name: "Решетка",
				Pose: at(15, 0),
				Components: []components.Spec{
					{Kind: components.KindDoor, Params: json.RawMessage(`{"locked":true,"keyId":"rusty"}`)},
				},
			},
			{
				ID: 12, Type: domain.EntityTypeContainer, Name: "Сундук",
				Pose: at(32, -3),
				Components: []components.Spec{
					{Kind: components.KindContainer, Params: json.RawMessage(`{"maxSlots":8,"items":{"gold":25,"rusty_key":1}}`)},
				},
			},
			{
				// Тайник появляется позже: неактивен, но сохраняется
				ID: 13, Type: domain.EntityTypeContainer, Name: "Тайник", Inactive: true,
				Pose: at(40, 5),
				Components: []components.Spec{
					{Kind: components.KindContainer, Params: json.RawMessage(`{"maxSlots":2}`)},
				},
			},
		},
		Checkpoints: []checkpoint.Declaration{
			{ID: "gate", EntityID: 20, Pose: at(10, 0)},
			{ID: "hall", EntityID: 21, Pose: at(20, 0)},
			{ID: "vault", EntityID: 22, Pose: at(30, 0)},
		},
	}
}
