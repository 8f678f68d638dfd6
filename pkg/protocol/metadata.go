/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package protocol

import "fmt"

// Rows metadata flags.
const flagGlobalTableSpec int32 = 0x0001

// readColumnType parses one column type option, recursing into
// collection element types. Reserved discriminants 0x0005 (counter) and
// 0x000A (text) fail closed.
func readColumnType(b *Buffer) (*ColumnType, error) {
	var ct *ColumnType
	err := b.ReadOption(func(id uint16, b *Buffer) error {
		switch TypeKind(id) {
		case TypeAscii, TypeBigint, TypeBlob, TypeBoolean, TypeDecimal,
			TypeDouble, TypeFloat, TypeInt, TypeTimestamp, TypeUUID,
			TypeVarchar, TypeVarint, TypeTimeUUID, TypeInet:
			ct = NativeType(TypeKind(id))
			return nil
		case TypeList, TypeSet:
			elem, err := readColumnType(b)
			if err != nil {
				return err
			}
			ct = &ColumnType{Kind: TypeKind(id), Elem: elem}
			return nil
		case TypeMap:
			key, err := readColumnType(b)
			if err != nil {
				return err
			}
			value, err := readColumnType(b)
			if err != nil {
				return err
			}
			ct = MapType(key, value)
			return nil
		default:
			return fmt.Errorf("%w: 0x%04X", ErrUnsupportedColumnType, id)
		}
	})
	if err != nil {
		return nil, err
	}
	return ct, nil
}

// readMetadata parses a rows/prepared metadata block: flags, column
// count, optional global table spec, then one spec per column. When the
// global table spec flag is set, every column inherits the global
// keyspace and table instead of carrying its own.
func readMetadata(b *Buffer) ([]ColumnSpec, error) {
	flags, err := b.ReadInt()
	if err != nil {
		return nil, err
	}
	count, err := b.ReadInt()
	if err != nil {
		return nil, err
	}

	global := flags&flagGlobalTableSpec != 0
	var keyspace, table string
	if global {
		if keyspace, err = b.ReadString(); err != nil {
			return nil, err
		}
		if table, err = b.ReadString(); err != nil {
			return nil, err
		}
	}

	specs := make([]ColumnSpec, 0, count)
	for i := int32(0); i < count; i++ {
		spec := ColumnSpec{Keyspace: keyspace, Table: table}
		if !global {
			if spec.Keyspace, err = b.ReadString(); err != nil {
				return nil, err
			}
			if spec.Table, err = b.ReadString(); err != nil {
				return nil, err
			}
		}
		if spec.Name, err = b.ReadString(); err != nil {
			return nil, err
		}
		if spec.Type, err = readColumnType(b); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// readRows parses the row payload that follows a rows metadata block:
// a row count, then per row one [bytes] cell per declared column,
// decoded against the column's type and keyed by column name.
func readRows(b *Buffer, specs []ColumnSpec) ([]Row, error) {
	count, err := b.ReadInt()
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, count)
	for i := int32(0); i < count; i++ {
		row := make(Row, len(specs))
		for _, spec := range specs {
			cell, err := b.ReadBytes()
			if err != nil {
				return nil, err
			}
			v, err := DecodeValue(cell, spec.Type)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", spec.Name, err)
			}
			row[spec.Name] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
