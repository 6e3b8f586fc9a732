package tally

import (
	"fmt"
	"strings"

	"github.com/tallybridge/backend/internal/domain/master"
)

// collectionEnvelope builds the Export/Collection request for one master
// kind. The inline TDL declares the collection on the fly so no definition
// has to be loaded into Tally beforehand. PARENT rides along with NAME so
// cache refreshes can record group hierarchy.
func collectionEnvelope(kind master.Kind) string {
	name := kind.String()
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ENVELOPE>
  <HEADER>
    <VERSION>1</VERSION>
    <TALLYREQUEST>Export</TALLYREQUEST>
    <TYPE>Collection</TYPE>
    <ID>%s</ID>
  </HEADER>
  <BODY>
    <DESC>
      <STATICVARIABLES>
        <SVEXPORTFORMAT>$$SysName:XML</SVEXPORTFORMAT>
      </STATICVARIABLES>
      <TDL>
        <TDLMESSAGE>
          <COLLECTION NAME="%s">
            <TYPE>%s</TYPE>
            <FETCH>NAME</FETCH>
            <FETCH>PARENT</FETCH>
          </COLLECTION>
        </TDLMESSAGE>
      </TDL>
    </DESC>
  </BODY>
</ENVELOPE>`, name, name, name)
}

// companyEnvelope builds the Export/Collection request that returns the
// company currently loaded in Tally.
func companyEnvelope() string {
	return `<ENVELOPE>
  <HEADER>
    <VERSION>1</VERSION>
    <TALLYREQUEST>Export</TALLYREQUEST>
    <TYPE>Collection</TYPE>
    <ID>Company</ID>
  </HEADER>
  <BODY>
    <DESC>
      <STATICVARIABLES>
        <SVEXPORTFORMAT>$$SysName:XML</SVEXPORTFORMAT>
        <SVCURRENTCOMPANY>Yes</SVCURRENTCOMPANY>
      </STATICVARIABLES>
    </DESC>
  </BODY>
</ENVELOPE>`
}

// masterImportEnvelope wraps one or more TALLYMESSAGE bodies in the
// All Masters import envelope. @@DUPIGNORE keeps a replayed payload from
// erroring when the master already landed.
func masterImportEnvelope(messages ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ENVELOPE>
  <HEADER>
    <VERSION>1</VERSION>
    <TALLYREQUEST>Import</TALLYREQUEST>
    <TYPE>Data</TYPE>
    <ID>All Masters</ID>
  </HEADER>
  <BODY>
    <DESC>
      <STATICVARIABLES>
        <IMPORTDUPS>@@DUPIGNORE</IMPORTDUPS>
      </STATICVARIABLES>
    </DESC>
    <DATA>
      <TALLYMESSAGE xmlns:UDF="TallyUDF">`)
	for _, m := range messages {
		b.WriteString(m)
	}
	b.WriteString(`
      </TALLYMESSAGE>
    </DATA>
  </BODY>
</ENVELOPE>`)
	return b.String()
}
