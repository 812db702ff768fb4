package codec_test

import (
	"fmt"
	"os"

	"github.com/matzehuels/qtikit/pkg/codec"
	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

func ExampleEncoder_Encode() {
	coords, _ := datatype.NewCoords(datatype.ShapeCircle, []int{50, 50, 20})
	a := &qti.HotspotChoice{Identifier: "A", Shape: datatype.ShapeCircle, Coords: coords}
	b := &qti.HotspotChoice{Identifier: "B", Shape: datatype.ShapeCircle, Coords: coords}

	enc := codec.NewEncoder(os.Stdout, codec.Formatted(true))
	_ = enc.Encode(a)
	_ = enc.Encode(b)
	// Output:
	// $v0 = array(50, 50, 20);
	// $v1 = new coords("circle", $v0);
	// $v2 = new hotspotChoice(identifier: "A", shape: "circle", coords: $v1);
	// $v3 = new hotspotChoice(identifier: "B", shape: "circle", coords: $v1);
}

func ExampleUnmarshal() {
	v, err := codec.Unmarshal([]byte(`$v0=new pair("A","B");$v1=new baseValue(baseType:"pair",datum:$v0);`))
	if err != nil {
		fmt.Println(err)
		return
	}
	bv := v.(*qti.BaseValue)
	fmt.Println(bv.ClassName(), bv.BaseType, bv.Datum)
	// Output: baseValue pair A B
}
